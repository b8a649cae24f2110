package validator

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"yamdb/proj/internal/domain/rules"

	govalidator "github.com/go-playground/validator/v10"
)

// New returns a validator with the domain tags registered: username,
// notfutureyear and slug.
func New() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterValidation("username", ValidateUsername)
	v.RegisterValidation("notfutureyear", ValidateNotFutureYear)
	v.RegisterValidation("slug", ValidateSlug)
	return v
}

func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func structType(obj any) reflect.Type {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// baseField strips the element index validator appends for dive errors.
func baseField(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}

func getFieldName(obj any, origFieldName string) (fieldName string) {
	origFieldName = baseField(origFieldName)
	t := structType(obj)
	field, found := t.FieldByName(origFieldName)
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", origFieldName, t.Name()))
	}
	fieldName = camelToSnake(origFieldName)
	if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
		if jsonName := strings.Split(tag, ",")[0]; jsonName != "" {
			fieldName = jsonName
		}
	} else if tag := field.Tag.Get("schema"); tag != "" && tag != "-" {
		fieldName = strings.Split(tag, ",")[0]
	}
	return
}

func ProcessValidationErrors(obj any, errs govalidator.ValidationErrors) map[string]string {
	processedErrors := make(map[string]string)
	for _, e := range errs {
		processedErrors[getFieldName(obj, e.StructField())] = GetErrorMsgForField(obj, e)
	}
	return processedErrors
}

func ValidateStruct(validator *govalidator.Validate, obj any) (validationErrs map[string]string) {
	if err := validator.Struct(obj); err != nil {
		validationErrs = ProcessValidationErrors(obj, err.(govalidator.ValidationErrors))
	}
	return
}

func GetErrorMsgForField(obj any, err govalidator.FieldError) (errorMsg string) {
	t := structType(obj)
	field, found := t.FieldByName(baseField(err.StructField()))
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", err.StructField(), t.Name()))
	}
	errorMsg = field.Tag.Get("errorMsg")
	if errorMsg == "" {
		switch err.Tag() {
		case "required":
			errorMsg = "This field is required"
		case "max":
			if field.Type.Kind() == reflect.String || field.Type.Kind() == reflect.Pointer {
				errorMsg = fmt.Sprintf("Ensure this field has no more than %s characters", err.Param())
			} else {
				errorMsg = fmt.Sprintf("The maximum value is %s", err.Param())
			}
		case "min":
			if field.Type.Kind() == reflect.Slice {
				errorMsg = fmt.Sprintf("Ensure this field has at least %s elements", err.Param())
			} else {
				errorMsg = fmt.Sprintf("The minimum value is %s", err.Param())
			}
		case "gte":
			errorMsg = fmt.Sprintf("Value should be greater than or equal to %s", err.Param())
		case "lte":
			errorMsg = fmt.Sprintf("Value should be less than or equal to %s", err.Param())
		case "oneof":
			errorMsg = fmt.Sprintf("Value should be one of %s", err.Param())
		case "email":
			errorMsg = "Value must be a valid email address"
		case "username":
			errorMsg = usernameMsg(err)
		case "notfutureyear":
			errorMsg = fmt.Sprintf("Year cannot be greater than %d", rules.Now().Year())
		case "slug":
			errorMsg = "Value may contain only latin letters, digits, hyphens and underscores"
		default:
			errorMsg = "This field is invalid"
		}
	}
	return
}

func usernameMsg(err govalidator.FieldError) string {
	value, _ := err.Value().(string)
	if _, verr := rules.ValidateUsername(value); verr != nil {
		return verr.Error()
	}
	return "This field is invalid"
}

// CUSTOM VALIDATORS

func stringValue(fl govalidator.FieldLevel) (string, bool) {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return "", false
	}
	return field.String(), true
}

func ValidateUsername(fl govalidator.FieldLevel) bool {
	s, ok := stringValue(fl)
	if !ok {
		return false
	}
	_, err := rules.ValidateUsername(s)
	return err == nil
}

func ValidateNotFutureYear(fl govalidator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		_, err := rules.ValidateYear(int(field.Int()))
		return err == nil
	}
	return false
}

func ValidateSlug(fl govalidator.FieldLevel) bool {
	s, ok := stringValue(fl)
	if !ok {
		return false
	}
	_, err := rules.ValidateSlug(s)
	return err == nil
}
