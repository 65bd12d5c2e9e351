package quote

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tournevent/postage/pkg/shipper"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// normalizeRequest trims the identifiers of req without touching the
// caller's item slice.
func normalizeRequest(req shipper.ShipmentRequest) shipper.ShipmentRequest {
	req.DestinationPostcode = strings.TrimSpace(req.DestinationPostcode)
	req.Country = strings.TrimSpace(req.Country)
	req.PackagingID = strings.TrimSpace(req.PackagingID)
	if req.Items != nil {
		items := make([]shipper.ItemSelection, len(req.Items))
		for i, sel := range req.Items {
			sel.ItemID = strings.TrimSpace(sel.ItemID)
			items[i] = sel
		}
		req.Items = items
	}
	return req
}

func (s *Service) validate(req shipper.ShipmentRequest) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

// describe renders fe against its JSON path, e.g. items[0].quantity.
func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must contain at least " + fe.Param() + " entry"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "len":
		return field + " must be " + fe.Param() + " characters"
	case "number":
		return field + " must be digits"
	case "alpha":
		return field + " must be letters"
	default:
		return field + " is invalid"
	}
}
