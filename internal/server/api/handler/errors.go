package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/padlink/dsubridge/controller"
	apierror "github.com/padlink/dsubridge/internal/server/api/error"
	"github.com/padlink/dsubridge/internal/server/dsu"
	"github.com/padlink/dsubridge/motion"
)

// problem maps errors of the dsu server to API problems.
func problem(err error) error {
	var cerr *motion.ConfigurationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &cerr):
		return apierror.ErrBadRequest(err.Error())
	case errors.Is(err, dsu.ErrInvalidSlot), errors.Is(err, dsu.ErrSlotEmpty):
		return apierror.ErrNotFound(err.Error())
	case errors.Is(err, dsu.ErrSlotBusy), errors.Is(err, dsu.ErrNoFreeSlot):
		return apierror.ErrConflict(err.Error())
	default:
		return apierror.ErrInternal(err.Error())
	}
}

// parseSlot reads the {id} path parameter.
func parseSlot(params map[string]string) (uint8, error) {
	idStr, ok := params["id"]
	if !ok {
		return 0, apierror.ErrBadRequest("missing id parameter")
	}
	id, err := strconv.ParseUint(idStr, 10, 8)
	if err != nil {
		return 0, apierror.ErrBadRequest(fmt.Sprintf("invalid pad id: %v", err))
	}
	if id >= controller.MaxPads {
		return 0, apierror.ErrNotFound(fmt.Sprintf("pad %d not found", id))
	}
	return uint8(id), nil
}

// parseSlotOrAny is parseSlot that also accepts "any" for the first free slot.
func parseSlotOrAny(params map[string]string) (int, error) {
	if strings.EqualFold(params["id"], "any") {
		return -1, nil
	}
	id, err := parseSlot(params)
	return int(id), err
}
