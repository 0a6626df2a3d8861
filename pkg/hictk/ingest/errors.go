package ingest

import (
	"fmt"

	"github.com/hictk-go/hictk/pkg/hictk"
)

func ioErrf(cause error, format string, args ...interface{}) error {
	return &hictk.Error{Kind: hictk.KindIO, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func invalidArgf(format string, args ...interface{}) error {
	return &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func corruptf(cause error, format string, args ...interface{}) error {
	return &hictk.Error{Kind: hictk.KindCorrupt, Msg: fmt.Sprintf(format, args...), Cause: cause}
}
