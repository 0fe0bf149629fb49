package onboarding

import (
	"reflect"
	"strconv"
	"strings"

	"upgradify/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Credentials is the step 0 form
type Credentials struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

// Survey is the step 1 form. Age is kept as entered so a non-number can be
// reported instead of silently dropped.
type Survey struct {
	Age           string   `json:"age"`
	Grade         string   `json:"grade" validate:"required,grade"`
	Interests     []string `json:"interests" validate:"min=1,dive,interest"`
	CareerGoal    string   `json:"career_goal" validate:"required,career_goal"`
	TargetCollege string   `json:"target_college"`
	TargetJob     string   `json:"target_job"`
}

// messages maps field and failed rule to the user-facing message
var messages = map[string]map[string]string{
	"name": {
		"required": "Name is required",
	},
	"email": {
		"required": "Email is required",
		"email":    "Invalid email",
	},
	"password": {
		"required": "Password is required",
		"min":      "Password must be at least 6 characters",
	},
	"confirm_password": {
		"eqfield": "Passwords must match",
	},
	"grade": {
		"required": "Grade level is required",
		"grade":    "Unknown grade level",
	},
	"interests": {
		"min":      "Select at least one interest",
		"interest": "Unknown interest",
	},
	"career_goal": {
		"required":    "Career goal is required",
		"career_goal": "Unknown career goal",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		return domain.IsGradeOption(fl.Field().String())
	})
	_ = v.RegisterValidation("interest", func(fl validator.FieldLevel) bool {
		return domain.IsInterestTag(fl.Field().String())
	})
	_ = v.RegisterValidation("career_goal", func(fl validator.FieldLevel) bool {
		return domain.IsCareerGoal(fl.Field().String())
	})
	return v
}

// ValidateCredentials returns field -> message for every invalid field
func ValidateCredentials(c Credentials) map[string]string {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	return collect(validate.Struct(c))
}

// ValidateSurvey returns field -> message for every invalid field
func ValidateSurvey(s Survey) map[string]string {
	fieldErrors := collect(validate.Struct(s))
	if _, err := parseAge(s.Age); err != "" {
		fieldErrors["age"] = err
	}
	return fieldErrors
}

func parseAge(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "Age is required"
	}
	age, err := strconv.Atoi(raw)
	if err != nil {
		return 0, "Invalid age"
	}
	if age < domain.MinAge {
		return 0, "Must be at least 13"
	}
	if age > domain.MaxAge {
		return 0, "Invalid age"
	}
	return age, ""
}

func collect(err error) map[string]string {
	fieldErrors := map[string]string{}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fieldErrors
	}

	for _, fe := range validationErrors {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		if _, seen := fieldErrors[field]; seen {
			continue
		}
		msg, ok := messages[field][fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		fieldErrors[field] = msg
	}
	return fieldErrors
}
