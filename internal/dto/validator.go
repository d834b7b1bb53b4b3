package dto

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MinEquipmentYear 可估值设备的最早出厂年份
const MinEquipmentYear = 1950

// RegisterValidators 向 gin 的校验引擎注册自定义规则
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("binding 校验引擎不是 validator.Validate")
	}
	if err := v.RegisterValidation("equipment_year", validateEquipmentYear); err != nil {
		return fmt.Errorf("注册 equipment_year 校验失败: %w", err)
	}
	return nil
}

// validateEquipmentYear 出厂年份在 [1950, 明年] 区间内
func validateEquipmentYear(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year >= MinEquipmentYear && year <= int64(time.Now().Year()+1)
}
