package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"medication-sku-service/internal/service"
)

const (
	msgRequired      = "This field is required."
	msgBlank         = "This field may not be blank."
	msgNull          = "This field may not be null."
	msgInvalid       = "Invalid value."
	msgInvalidInt    = "A valid integer is required."
	msgExpectedList  = "Expected a list of items."
	msgExpectedDict  = "Invalid data. Expected a dictionary."
	nonFieldErrorKey = "non_field_errors"
)

// Integer accepts JSON numbers without a fractional part and numeric
// strings, so "50", 50 and 50.0 all decode to 50.
type Integer int

func (n *Integer) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}

	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*n = Integer(v)
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int64(f)) {
		*n = Integer(int64(f))
		return nil
	}
	return &json.UnmarshalTypeError{Value: "number " + raw, Type: reflect.TypeOf(0)}
}

func (n *Integer) intPtr() *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// TagPayload is one element of the nested tags list.
type TagPayload struct {
	Name *string `json:"name" validate:"required,min=1,max=255"`
}

// OptionalTags keeps the difference between a missing "tags" key, an
// explicit null and a (possibly empty) list.
type OptionalTags struct {
	Set   bool
	Null  bool
	Items []TagPayload
}

func (t *OptionalTags) UnmarshalJSON(data []byte) error {
	t.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Null = true
		return nil
	}
	return json.Unmarshal(data, &t.Items)
}

// MedicationSKUPayload is the body of create and full update requests.
// Keys such as "user", "owner" or "id" are dropped by the decoder.
type MedicationSKUPayload struct {
	MedicationName *string      `json:"medication_name" validate:"required,min=1,max=255"`
	Presentation   *string      `json:"presentation" validate:"required,min=1,max=255"`
	Dose           *Integer     `json:"dose" validate:"required,gt=0,lte=2147483647"`
	Unit           *string      `json:"unit" validate:"required,min=1,max=50"`
	Tags           OptionalTags `json:"tags"`
}

// MedicationSKUPatchPayload is the body of partial updates.
type MedicationSKUPatchPayload struct {
	MedicationName *string      `json:"medication_name" validate:"omitempty,min=1,max=255"`
	Presentation   *string      `json:"presentation" validate:"omitempty,min=1,max=255"`
	Dose           *Integer     `json:"dose" validate:"omitempty,gt=0,lte=2147483647"`
	Unit           *string      `json:"unit" validate:"omitempty,min=1,max=50"`
	Tags           OptionalTags `json:"tags"`
}

type TagWritePayload struct {
	Name *string `json:"name" validate:"required,min=1,max=255"`
}

type TagPatchPayload struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=255"`
}

func (t *OptionalTags) normalize() {
	for i := range t.Items {
		trim(t.Items[i].Name)
	}
}

func (p *MedicationSKUPayload) normalize() {
	trim(p.MedicationName)
	trim(p.Presentation)
	trim(p.Unit)
	p.Tags.normalize()
}

func (p *MedicationSKUPatchPayload) normalize() {
	trim(p.MedicationName)
	trim(p.Presentation)
	trim(p.Unit)
	p.Tags.normalize()
}

func (p *TagWritePayload) normalize() { trim(p.Name) }

func (p *TagPatchPayload) normalize() { trim(p.Name) }

func (p MedicationSKUPayload) Input() service.MedicationSKUInput {
	return service.MedicationSKUInput{
		MedicationName: *p.MedicationName,
		Presentation:   *p.Presentation,
		Dose:           int(*p.Dose),
		Unit:           *p.Unit,
		Tags:           p.Tags.Spec(),
	}
}

func (p MedicationSKUPatchPayload) Patch() service.MedicationSKUPatch {
	return service.MedicationSKUPatch{
		MedicationName: p.MedicationName,
		Presentation:   p.Presentation,
		Dose:           p.Dose.intPtr(),
		Unit:           p.Unit,
		Tags:           p.Tags.Spec(),
	}
}

func (t OptionalTags) Spec() service.TagSpec {
	if !t.Set {
		return service.TagSpec{}
	}
	names := make([]string, 0, len(t.Items))
	for _, item := range t.Items {
		names = append(names, *item.Name)
	}
	return service.TagSpec{Set: true, Names: names}
}

// PayloadValidator decodes request bodies and reports problems as field maps.
type PayloadValidator struct {
	validate *validator.Validate
}

func NewPayloadValidator() *PayloadValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &PayloadValidator{validate: v}
}

// Decode unmarshals body into out, trims surrounding whitespace from its
// strings and validates it. The returned map is nil when the payload is
// acceptable.
func (pv *PayloadValidator) Decode(body []byte, out interface{}) map[string][]string {
	if err := json.Unmarshal(body, out); err != nil {
		return decodeError(err)
	}
	if n, ok := out.(interface{ normalize() }); ok {
		n.normalize()
	}
	return pv.check(out)
}

// DecodeList handles bulk bodies: every element is decoded and validated on
// its own so errors line up with the submitted indexes.
func (pv *PayloadValidator) DecodeList(body []byte, newItem func() interface{}) ([]interface{}, []map[string][]string, map[string][]string) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, nil, map[string][]string{nonFieldErrorKey: {msgExpectedList}}
		}
		return nil, nil, decodeError(err)
	}

	items := make([]interface{}, len(raw))
	perItem := make([]map[string][]string, len(raw))
	failed := false
	for i, elem := range raw {
		items[i] = newItem()
		fields := pv.Decode(elem, items[i])
		if fields == nil {
			fields = map[string][]string{}
		} else {
			failed = true
		}
		perItem[i] = fields
	}

	if failed {
		return nil, perItem, nil
	}
	return items, nil, nil
}

func (pv *PayloadValidator) check(out interface{}) map[string][]string {
	fields := map[string][]string{}

	if err := pv.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return map[string][]string{nonFieldErrorKey: {err.Error()}}
		}
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
		}
	}

	var tags *OptionalTags
	switch p := out.(type) {
	case *MedicationSKUPayload:
		tags = &p.Tags
	case *MedicationSKUPatchPayload:
		tags = &p.Tags
	}
	if tags != nil {
		pv.checkTags(tags, fields)
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (pv *PayloadValidator) checkTags(tags *OptionalTags, fields map[string][]string) {
	if tags.Null {
		fields["tags"] = append(fields["tags"], msgNull)
		return
	}
	for i := range tags.Items {
		err := pv.validate.Struct(&tags.Items[i])
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			continue
		}
		for _, fe := range verrs {
			key := fmt.Sprintf("tags[%d].%s", i, fe.Field())
			fields[key] = append(fields[key], fieldMessage(fe))
		}
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "min":
		if fe.Kind() == reflect.String && fe.Param() == "1" {
			return msgBlank
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	default:
		return msgInvalid
	}
}

func decodeError(err error) map[string][]string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return map[string][]string{nonFieldErrorKey: {msgExpectedDict}}
		}
		msg := msgInvalid
		switch typeErr.Type.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			msg = msgInvalidInt
		}
		field := strings.SplitN(typeErr.Field, ".", 2)[0]
		return map[string][]string{field: {msg}}
	}
	return map[string][]string{nonFieldErrorKey: {"JSON parse error - " + err.Error()}}
}
