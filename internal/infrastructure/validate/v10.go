package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// PlaygroundV10 Validator implementation using go-playground
type PlaygroundV10 struct {
	core  *validator.Validate
	trans ut.Translator
}

// NewValidator create a new Validator
func NewValidator() *PlaygroundV10 {
	en := en.New()
	zh := zh.New()
	uni := ut.New(en, en, zh)
	trans, _ := uni.GetTranslator("en") // en translator as default

	validate := validator.New()
	en_translations.RegisterDefaultTranslations(validate, trans)
	zh_translations.RegisterDefaultTranslations(validate, trans)
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			name = strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return ""
			}
		}
		return name
	})
	return &PlaygroundV10{
		core:  validate,
		trans: trans,
	}
}

// Struct validate struct
func (v PlaygroundV10) Struct(s interface{}) []*FieldError {
	var result []*FieldError
	validate := v.core
	if err := validate.Struct(s); err != nil {
		for _, item := range err.(validator.ValidationErrors) {
			result = append(result, NewFieldError(fieldPath(item), item.Translate(v.trans)))
		}
		return result
	}
	return nil
}

// Var validate a single value against tag
func (v PlaygroundV10) Var(varName string, s interface{}, tag string) []*FieldError {
	var result []*FieldError
	if err := v.core.Var(s, tag); err != nil {
		for _, item := range err.(validator.ValidationErrors) {
			result = append(result, NewFieldError(varName, varName+item.Translate(v.trans)))
		}
		return result
	}
	return nil
}

// fieldPath nested path without the top level struct name, eg. mcqQuestions[1].options
func fieldPath(item validator.FieldError) string {
	ns := item.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return item.Field()
}
