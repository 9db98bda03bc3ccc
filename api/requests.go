package api

import (
	"bytes"
	"encoding/json"
	"time"

	"betpool/models"
	"betpool/service"
)

type createBetRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Amount      int64      `json:"amount" validate:"gt=0"`
	Options     []string   `json:"options" validate:"required,min=2,max=5,dive,required,max=100"`
	Deadline    *time.Time `json:"deadline"`
}

func (req createBetRequest) params() service.CreateBetParams {
	return service.CreateBetParams{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Options:     req.Options,
		Deadline:    req.Deadline,
	}
}

type editBetRequest struct {
	Title         *string    `json:"title" validate:"omitempty,max=200"`
	Description   *string    `json:"description" validate:"omitempty,max=2000"`
	Amount        *int64     `json:"amount" validate:"omitempty,gt=0"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clear_deadline"`
	Options       []string   `json:"options" validate:"omitempty,min=2,max=5,dive,required,max=100"`
}

func (req editBetRequest) params() service.EditBetParams {
	return service.EditBetParams{
		Title:         req.Title,
		Description:   req.Description,
		Amount:        req.Amount,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
		Options:       req.Options,
	}
}

type changeStatusRequest struct {
	Status models.BetStatus `json:"status" validate:"required,oneof=open active in-progress resolved"`
}

// optionRef accepts an option reference given either as a JSON string
// ("option_1", option text) or as a bare option id
type optionRef string

func (o *optionRef) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = optionRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*o = optionRef(n.String())
	return nil
}

type resolveRequest struct {
	WinningOption optionRef `json:"winning_option" validate:"required"`
}

type participateRequest struct {
	Option optionRef `json:"option" validate:"required"`
	// Stake defaults to the bet amount when omitted
	Stake int64 `json:"stake" validate:"gte=0"`
}

type changeOptionRequest struct {
	UserID int64     `json:"user_id" validate:"gt=0"`
	Option optionRef `json:"option" validate:"required"`
}

type registerUserRequest struct {
	DisplayName string      `json:"display_name" validate:"required,max=100"`
	Email       *string     `json:"email" validate:"omitempty,email"`
	Role        models.Role `json:"role" validate:"omitempty,oneof=admin user"`
}

type setCreditsRequest struct {
	Credits *int64 `json:"credits" validate:"required,gte=0"`
}

type markReadRequest struct {
	IDs []int64 `json:"ids" validate:"omitempty,dive,gt=0"`
}
