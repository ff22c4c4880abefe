package entity

import (
	"github.com/aisgo/ais-edu/repository"

	"gorm.io/datatypes"
)

// Plan 订阅套餐
type Plan struct {
	repository.BaseModel
	Name        string                          `json:"name" gorm:"column:name;size:16;uniqueIndex" validate:"required,oneof=free plus premium pro b2b" error_msg:"required:name is required"`
	Description string                          `json:"description" gorm:"column:description"`
	Pricing     datatypes.JSONType[PlanPricing] `json:"pricing" gorm:"column:pricing"`
	Benefits    datatypes.JSONSlice[string]     `json:"benefits" gorm:"column:benefits"`
	Limits      datatypes.JSONType[PlanLimits]  `json:"limits" gorm:"column:limits"`
	IsActive    *bool                           `json:"isActive" gorm:"column:is_active;not null;default:true"`
}

// PlanPricing 价格
type PlanPricing struct {
	MonthlyUSD float64 `json:"monthlyUsd" validate:"gte=0"`
	AnnualUSD  float64 `json:"annualUsd" validate:"gte=0"`
}

// PlanLimits 套餐配额
type PlanLimits struct {
	RoutesPerMonth     *int64 `json:"routesPerMonth,omitempty" validate:"omitempty,gte=0"`
	ActiveRoutes       *int64 `json:"activeRoutes,omitempty" validate:"omitempty,gte=0"`
	SimultaneousRoutes *int64 `json:"simultaneousRoutes,omitempty" validate:"omitempty,gte=0"`
	MaxTokensPerMonth  *int64 `json:"maxTokensPerMonth,omitempty" validate:"omitempty,gte=0"`
	MaxDevices         *int64 `json:"maxDevices,omitempty" validate:"omitempty,gte=0"`
	AdFree             *bool  `json:"adFree,omitempty"`
}

func (Plan) TableName() string { return "plans" }

func (Plan) ModelName() string { return "Plan" }

func (*Plan) HasAuthorField() bool { return false }

func (*Plan) DeclaredFields() []Field { return DeclaredOf(Plan{}) }

func (p *Plan) ApplyDefaults() {
	trimAll(&p.Name, &p.Description)
	if p.Benefits == nil {
		p.Benefits = datatypes.JSONSlice[string]{}
	}
	limits := p.Limits.Data()
	defaultInt(&limits.RoutesPerMonth, 1)
	defaultInt(&limits.ActiveRoutes, 2)
	defaultInt(&limits.SimultaneousRoutes, 3)
	defaultInt(&limits.MaxTokensPerMonth, 1000)
	defaultInt(&limits.MaxDevices, 1)
	if limits.AdFree == nil {
		v := false
		limits.AdFree = &v
	}
	p.Limits = datatypes.NewJSONType(limits)
	defaultTrue(&p.IsActive)
}

func (p *Plan) Validate() error {
	pricing, limits := p.Pricing.Data(), p.Limits.Data()
	return check(p.ModelName(), p,
		nestedCheck("pricing", &pricing),
		nestedCheck("limits", &limits),
	)
}

func (p *Plan) Serialize() (map[string]any, error) { return serialize(p) }

func defaultInt(v **int64, def int64) {
	if *v == nil {
		*v = &def
	}
}
