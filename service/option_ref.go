package service

import (
	"fmt"
	"strconv"
	"strings"

	"betpool/models"
)

const optionTokenPrefix = "option_"

// ResolveOptionReference maps a client supplied reference to one of the bet's
// options. options must be ordered by position. Accepted forms:
//
//	option_<n>  zero-based position token
//	<id>        option id
//	<text>      exact option text, for clients that still send the label
func ResolveOptionReference(options []*models.BetOption, ref string) (*models.BetOption, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty option reference: %w", ErrOptionNotFound)
	}

	if token, ok := strings.CutPrefix(ref, optionTokenPrefix); ok {
		index, err := strconv.Atoi(token)
		if err != nil || index < 0 {
			return nil, fmt.Errorf("malformed option token %q: %w", ref, ErrOptionNotFound)
		}
		if index >= len(options) {
			return nil, fmt.Errorf("option index %d out of range for %d options: %w", index, len(options), ErrOptionNotFound)
		}
		return options[index], nil
	}

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, opt := range options {
			if opt.ID == id {
				return opt, nil
			}
		}
		// A numeric label such as "2026" may still match by text below
	}

	for _, opt := range options {
		if opt.Text == ref {
			return opt, nil
		}
	}
	return nil, fmt.Errorf("no option matches %q: %w", ref, ErrOptionNotFound)
}

// OptionIDRef formats an option id as a reference accepted by ResolveOptionReference
func OptionIDRef(id int64) string {
	return strconv.FormatInt(id, 10)
}
