package publisher

import (
	"io"
	"os"
	"reflect"
)

// isNilReader reports whether r is nil or an interface holding a nil pointer.
func isNilReader(r io.Reader) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// streamLength reports how many bytes are left to read from r.
// ok is false when r exposes no way to know that up front.
func streamLength(r io.Reader) (length int64, ok bool) {
	switch v := r.(type) {
	case interface{ Len() int }:
		return int64(v.Len()), true
	case io.Seeker:
		if n, err := seekerRemaining(v); err == nil {
			return n, true
		}
	}
	if st, isStater := r.(interface{ Stat() (os.FileInfo, error) }); isStater {
		if info, err := st.Stat(); err == nil && info.Mode().IsRegular() {
			return info.Size(), true
		}
	}
	if sz, isSizer := r.(interface{ Size() int64 }); isSizer {
		return sz.Size(), true
	}
	return 0, false
}

func seekerRemaining(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end - cur, nil
}
