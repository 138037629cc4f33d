package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// IsEmpty checks if a string is empty.
func IsEmpty(s string) bool {
	return s == ""
}

// ParseStructEnv binds env vars to struct fields using a mapstructure tag
func ParseStructEnv(v *viper.Viper, cfg interface{}) error {
	rv := reflect.ValueOf(cfg).Elem()
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("mapstructure")
		if IsEmpty(tag) {
			continue
		}
		if err := v.BindEnv(tag); err != nil {
			return err
		}
	}
	return v.Unmarshal(cfg)
}

// FormatConfigErrors logs every validation failure on cfg and returns them as one error.
func FormatConfigErrors(logger *zap.Logger, err error, cfg interface{}) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		logger.Error("config validation: FAILURE", zap.Error(err))
		return err
	}
	logger.Error("config validation: FAILURE")
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed on '%s' (current value is %v)", envName(cfg, structField(fe)), ruleText(fe), maskedValue(cfg, fe))
		logger.Error(msg)
		msgs = append(msgs, msg)
	}
	return errors.New("invalid configuration: " + strings.Join(msgs, "; "))
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// structField strips the element index validator appends for dive rules, e.g. "URLs[0]".
func structField(fe validator.FieldError) string {
	name := fe.StructField()
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}

// envName maps a struct field back to its mapstructure (env) name.
func envName(cfg interface{}, field string) string {
	t := reflect.TypeOf(cfg)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(field); ok {
		if tag := f.Tag.Get("mapstructure"); !IsEmpty(tag) {
			return tag
		}
	}
	return field
}

func maskedValue(cfg interface{}, fe validator.FieldError) interface{} {
	t := reflect.TypeOf(cfg)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(structField(fe)); ok && f.Tag.Get("mask") == "true" {
		return Mask(fmt.Sprint(fe.Value()))
	}
	return fe.Value()
}

// Mask replaces every character of s with an asterisk.
func Mask(s string) string {
	return strings.Repeat("*", len(s))
}
