package adfvol

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCode is the public result-code taxonomy every mutating or lookup
// operation in this package returns, wrapped with context by
// github.com/pkg/errors (spec.md §6, §7).
type ErrCode int

// Result codes.
const (
	CodeOK ErrCode = iota
	CodeError
	CodeNullPtr
	CodeMalloc
	CodeVolFull
	CodeBlockOutOfRange
	CodeBlockChecksum
	CodeDirNotFound
	CodeFileNotFound
	CodeNameTooLong
	CodeNameInvalid
	CodeEntryExists
	CodeFileReadOnly
	CodeDeviceReadOnly
)

func (c ErrCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeError:
		return "error"
	case CodeNullPtr:
		return "nullPtr"
	case CodeMalloc:
		return "malloc"
	case CodeVolFull:
		return "volFull"
	case CodeBlockOutOfRange:
		return "blockOutOfRange"
	case CodeBlockChecksum:
		return "blockChecksum"
	case CodeDirNotFound:
		return "dirNotFound"
	case CodeFileNotFound:
		return "fileNotFound"
	case CodeNameTooLong:
		return "nameTooLong"
	case CodeNameInvalid:
		return "nameInvalid"
	case CodeEntryExists:
		return "entryExists"
	case CodeFileReadOnly:
		return "fileReadOnly"
	case CodeDeviceReadOnly:
		return "deviceReadOnly"
	default:
		return "unknown"
	}
}

// codedError wraps an ErrCode with contextual detail, the way every
// public function in this package reports failure.
type codedError struct {
	code ErrCode
	msg  string
}

func (e *codedError) Error() string { return e.code.String() + ": " + e.msg }

// Code extracts the ErrCode carried by err, or CodeError if err was not
// produced by this package.
func Code(err error) ErrCode {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	if err == nil {
		return CodeOK
	}
	return CodeError
}

func newErr(code ErrCode, format string, args ...interface{}) error {
	return errors.WithStack(&codedError{code: code, msg: fmt.Sprintf(format, args...)})
}

// Sentinel errors for common failure points, each carrying its ErrCode.
var (
	ErrVolFull         = &codedError{code: CodeVolFull, msg: "no free blocks remain"}
	ErrBlockOutOfRange = &codedError{code: CodeBlockOutOfRange, msg: "block index outside volume range"}
	ErrBlockChecksum   = &codedError{code: CodeBlockChecksum, msg: "stored checksum does not match recomputed value"}
	ErrDirNotFound     = &codedError{code: CodeDirNotFound, msg: "directory not found"}
	ErrFileNotFound    = &codedError{code: CodeFileNotFound, msg: "file not found"}
	ErrNameTooLong     = &codedError{code: CodeNameTooLong, msg: "name exceeds 30 printable characters"}
	ErrNameInvalid     = &codedError{code: CodeNameInvalid, msg: "name contains invalid characters"}
	ErrEntryExists     = &codedError{code: CodeEntryExists, msg: "an entry with this name already exists"}
	ErrFileReadOnly    = &codedError{code: CodeFileReadOnly, msg: "file handle is read-only"}
	ErrDeviceReadOnly  = &codedError{code: CodeDeviceReadOnly, msg: "volume is mounted read-only"}
	ErrPFSUnsupported  = &codedError{code: CodeError, msg: "PFS volumes are recognized and refused, not mounted"}
)
