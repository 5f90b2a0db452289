package group

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kazadi/maktaba/core"
)

// Group is a container for chat rooms. There is no membership model; any
// authenticated user may list groups and enter any room.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewGroup struct {
	Name string `json:"name" form:"name" validate:"required"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	return validate.Struct(ng)
}
