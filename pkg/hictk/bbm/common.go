package bbm

import (
	"encoding/binary"
	"fmt"

	"github.com/hictk-go/hictk/pkg/hictk"
)

// byteOrder is fixed by the format: BBM is always little-endian (spec §6).
var byteOrder = binary.LittleEndian

// wideChromLengthVersion is the first format version that stores
// chromosome lengths as int64 rather than int32 (spec §6: "≥ v9").
const wideChromLengthVersion = 9

// maxReasonableCount bounds count fields read directly off disk so a
// corrupt file can't make us allocate an enormous slice before the
// first sanity check fails.
const maxReasonableCount = 1 << 24

func corruptf(format string, args ...interface{}) error {
	return &hictk.Error{Kind: hictk.KindCorrupt, Msg: fmt.Sprintf(format, args...)}
}

func ioErrf(cause error, format string, args ...interface{}) error {
	return &hictk.Error{Kind: hictk.KindIO, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func notFoundf(format string, args ...interface{}) error {
	return &hictk.Error{Kind: hictk.KindNotFound, Msg: fmt.Sprintf(format, args...)}
}
