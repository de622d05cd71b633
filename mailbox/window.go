package mailbox

import (
	"github.com/creativeprojects/webmail/lib"
)

// Window is a range of sequence numbers, both ends included.
// Sequence number 1 is the oldest message of the folder.
type Window struct {
	Start uint32
	End   uint32
}

// IsEmpty returns true when there is nothing to fetch
func (w Window) IsEmpty() bool {
	return w.Start == 0 || w.Start > w.End
}

// Len is the number of messages in the window
func (w Window) Len() int {
	if w.IsEmpty() {
		return 0
	}
	return int(w.End-w.Start) + 1
}

// Paginate returns the window of the page (1 being the newest messages) in a folder of total messages.
// A page past the end gives an empty window, not an error.
func Paginate(total uint32, page, limit int) (Window, error) {
	if err := ValidatePage(page, limit); err != nil {
		return Window{}, err
	}
	if total == 0 {
		return Window{}, nil
	}
	end := int64(total) - int64(page-1)*int64(limit)
	start := int64(total) - int64(page)*int64(limit) + 1
	if start < 1 {
		start = 1
	}
	if end < 1 || start > end {
		return Window{}, nil
	}
	return Window{
		Start: uint32(start),
		End:   uint32(end),
	}, nil
}

// ValidatePage checks the page number and the page size are positive
func ValidatePage(page, limit int) error {
	if page < 1 {
		return lib.Validationf("invalid page number %d", page)
	}
	if limit < 1 {
		return lib.Validationf("invalid page size %d", limit)
	}
	return nil
}
