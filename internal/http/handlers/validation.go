package handlers

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

var registerOnce sync.Once

// RegisterValidators adds the request-body tags used by the handlers to gin's validator:
// notblank, priority, task_status and project_status.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
			_, err := vo.ParsePriority(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
			_, err := vo.ParseTaskStatus(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("project_status", func(fl validator.FieldLevel) bool {
			_, err := vo.ParseProjectStatus(fl.Field().String())
			return err == nil
		})
	})
}
