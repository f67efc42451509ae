package remote

import (
	"fmt"

	"github.com/dkotlyar/snipstash/internal/common"
)

// ServerError is a non-2xx response with its status and message.
// It matches common.ErrServer via errors.Is.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

func (e *ServerError) Is(target error) bool {
	return target == common.ErrServer
}
