package cmd

import (
	"context"
	"fmt"
	"io"
	stdtime "time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mensylisir/xmpublish/common"
	"github.com/mensylisir/xmpublish/config"
	"github.com/mensylisir/xmpublish/file"
	"github.com/mensylisir/xmpublish/logger"
	"github.com/mensylisir/xmpublish/publisher"
	"github.com/mensylisir/xmpublish/time"
	"github.com/mensylisir/xmpublish/util"
)

type sendOptions struct {
	configFile     string
	host           string
	port           int
	username       string
	password       string
	keyFile        string
	workDir        string
	timeout        stdtime.Duration
	knownHostsFile string
	insecure       bool
	progress       bool
	logLevel       string
	logDir         string
	verbose        bool
}

func newSendCmd() *cobra.Command {
	return newSendCmdWithOptions(&sendOptions{})
}

func newSendCmdWithOptions(o *sendOptions) *cobra.Command {
	sendCmd := &cobra.Command{
		Use:   "send [flags] FILE...",
		Short: "Upload local files into the remote working directory",
		Example: `  xmpublish send --host files.example.com --user sshuser --password 12345 --dir /upload report.csv
  xmpublish send --config staging.yaml --progress build/*.tar.gz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := o.resolveSpec(cmd)
			if err != nil {
				return err
			}
			return runSend(cmd.Context(), cmd.OutOrStdout(), spec, o, args)
		},
	}

	flags := sendCmd.Flags()
	flags.StringVarP(&o.configFile, "config", "c", "", "publish profile (YAML)")
	flags.StringVarP(&o.host, "host", "H", "", "remote host, optionally host:port")
	flags.IntVarP(&o.port, "port", "p", common.DefaultSSHPort, "remote SSH port")
	flags.StringVarP(&o.username, "user", "u", "", "SSH username")
	flags.StringVarP(&o.password, "password", "P", "", "SSH password")
	flags.StringVarP(&o.keyFile, "key", "i", "", "private key file, tried after the password")
	flags.StringVarP(&o.workDir, "dir", "d", "", "remote working directory")
	flags.DurationVar(&o.timeout, "timeout", common.DefaultTimeout, "dial and handshake timeout")
	flags.StringVar(&o.knownHostsFile, "known-hosts", "", "known_hosts file used to verify the host key")
	flags.BoolVar(&o.insecure, "insecure", false, "skip host key verification")
	flags.BoolVar(&o.progress, "progress", false, "show a progress bar per file")
	flags.StringVar(&o.logLevel, "log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")
	flags.StringVar(&o.logDir, "log-dir", "", "write rotated log files into this directory instead of stderr")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")
	return sendCmd
}

// resolveSpec loads the profile, if any, and lets explicitly set flags override it.
func (o *sendOptions) resolveSpec(cmd *cobra.Command) (*config.PublishSpec, error) {
	spec := &config.PublishSpec{}
	if o.configFile != "" {
		cfg, err := config.NewLoader(o.configFile).Load()
		if err != nil {
			return nil, err
		}
		spec = &cfg.Spec
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		spec.Host = o.host
	}
	if flags.Changed("port") {
		spec.Port = o.port
	}
	if flags.Changed("user") {
		spec.Username = o.username
	}
	if flags.Changed("password") {
		spec.Password = o.password
	}
	if flags.Changed("key") {
		spec.ClientKeyPath = o.keyFile
	}
	if flags.Changed("dir") {
		spec.WorkingDirectory = o.workDir
	}
	if flags.Changed("timeout") {
		spec.Timeout = o.timeout
	}
	if flags.Changed("known-hosts") {
		spec.KnownHostsFile = o.knownHostsFile
	}
	if flags.Changed("insecure") {
		spec.InsecureIgnoreHostKey = o.insecure
	}
	if flags.Changed("log-level") {
		spec.Log.Level = o.logLevel
	}
	if flags.Changed("log-dir") {
		spec.Log.Dir = o.logDir
	}

	config.SetDefaults(spec)
	if err := config.Validate(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func runSend(ctx context.Context, out io.Writer, spec *config.PublishSpec, o *sendOptions, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	level, err := spec.LogLevel()
	if err != nil {
		return err
	}
	if err := logger.InitGlobalLogger(spec.Log.Dir, o.verbose, level); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	p := &publisher.Publisher{}
	spec.Apply(p)
	defer func() {
		if err := p.Close(); err != nil {
			logger.Log.WarnfHost(p.Host, "close: %v", err)
		}
	}()

	connected, err := p.Connect(ctx)
	if err != nil {
		return err
	}
	if !connected {
		return errors.Errorf("connection to %s was not established", p.Host)
	}

	var failed int
	for _, localPath := range files {
		if err := publishOne(ctx, out, p, localPath, o.progress); err != nil {
			failed++
			logger.Log.ErrorfFile(localPath, err, "publish failed")
			fmt.Fprintf(out, "%s: %v\n", localPath, err)
		}
	}

	if err := p.Disconnect(); err != nil {
		logger.Log.WarnfHost(p.Host, "disconnect: %v", err)
	}
	if failed > 0 {
		return errors.Errorf("%d of %d files failed to publish", failed, len(files))
	}
	return nil
}

func publishOne(ctx context.Context, out io.Writer, p *publisher.Publisher, localPath string, showProgress bool) error {
	expanded, err := util.ExpandPath(localPath)
	if err != nil {
		return err
	}
	sum, err := file.FileMD5(expanded)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	p.OnProgress = nil
	if showProgress {
		p.OnProgress = func(sent, total int64) {
			if bar == nil {
				bar = progressbar.DefaultBytes(total, "uploading "+localPath)
			}
			_ = bar.Set64(sent)
		}
	}

	start := stdtime.Now()
	res, err := p.SendFile(ctx, expanded, "")
	elapsed := stdtime.Since(start)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}

	logger.Log.WithField(common.FileName, res.FileName).
		WithField(common.RemotePath, res.RemotePath).
		Infof("md5 %s", sum)
	fmt.Fprintf(out, "%s -> %s  %s in %s (%s)  md5 %s\n",
		localPath, res.RemotePath, time.HumanBytes(res.BytesTransferred),
		time.ShortDur(elapsed.Round(stdtime.Millisecond)), time.Rate(res.BytesTransferred, elapsed), sum)
	return nil
}
