package dto

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func TestValidateEquipmentYear(t *testing.T) {
	v := validator.New()
	if err := v.RegisterValidation("equipment_year", validateEquipmentYear); err != nil {
		t.Fatalf("注册校验失败: %v", err)
	}

	type payload struct {
		Year int `validate:"equipment_year"`
	}

	tests := []struct {
		name    string
		year    int
		wantErr bool
	}{
		{"正常年份", 2018, false},
		{"最早年份", MinEquipmentYear, false},
		{"明年新机", time.Now().Year() + 1, false},
		{"过早", MinEquipmentYear - 1, true},
		{"过晚", time.Now().Year() + 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(payload{Year: tt.year})
			if (err != nil) != tt.wantErr {
				t.Errorf("year=%d: wantErr=%v, got %v", tt.year, tt.wantErr, err)
			}
		})
	}
}

func TestPaginationRequest_Normalize(t *testing.T) {
	p := PaginationRequest{}
	p.Normalize(20, 100)
	if p.Page != 1 || p.PageSize != 20 {
		t.Errorf("默认值错误: page=%d size=%d", p.Page, p.PageSize)
	}

	p = PaginationRequest{Page: 3, PageSize: 500}
	p.Normalize(20, 100)
	if p.PageSize != 100 {
		t.Errorf("应截断到 100，得到 %d", p.PageSize)
	}
	if p.GetOffset() != 200 {
		t.Errorf("offset 应为 200，得到 %d", p.GetOffset())
	}
}
