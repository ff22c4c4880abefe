package entity

import (
	"strings"
	"time"

	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/validator"

	"gorm.io/datatypes"
)

// User 平台用户：身份、学段、角色、订阅、代币余额与偏好
type User struct {
	repository.BaseModel
	Email           string                              `json:"email" gorm:"column:email;size:320;uniqueIndex" validate:"required,email" error_msg:"required:email is required|email:Invalid email format."`
	AuthProvider    string                              `json:"authProvider" gorm:"column:auth_provider;size:16" validate:"oneof=local google facebook apple"`
	PasswordHash    string                              `json:"passwordHash,omitempty" gorm:"column:password_hash" edu:"secret"`
	PasswordHistory datatypes.JSONSlice[string]         `json:"passwordHistory,omitempty" gorm:"column:password_history" edu:"secret" validate:"max=3" error_msg:"max:You cannot reuse the last 3 passwords."`
	Name            string                              `json:"name" gorm:"column:name" validate:"omitempty,personname" error_msg:"personname:Name can only contain letters."`
	Country         string                              `json:"country" gorm:"column:country"`
	Language        string                              `json:"language" gorm:"column:language;size:8"`
	AcademicLevel   string                              `json:"academicLevel" gorm:"column:academic_level;size:16" validate:"oneof=primary secondary high_school undergraduate postgraduate others"`
	Role            string                              `json:"role" gorm:"column:role;size:16;index" validate:"oneof=user moderator revisor admin superadmin"`
	Plan            datatypes.JSONType[UserPlan]        `json:"plan" gorm:"column:plan"`
	TokensBalance   float64                             `json:"tokensBalance" gorm:"column:tokens_balance" validate:"gte=0"`
	Preferences     datatypes.JSONType[UserPreferences] `json:"preferences" gorm:"column:preferences"`
	Progress        datatypes.JSONType[UserProgress]    `json:"progress" gorm:"column:progress"`
	Security        datatypes.JSONType[UserSecurity]    `json:"security" gorm:"column:security"`
	CreatedBy       *string                             `json:"createdBy" gorm:"column:created_by;type:varchar(26)" validate:"omitempty,ulid"`
}

// UserPlan 订阅信息
type UserPlan struct {
	Tier      string     `json:"tier" validate:"oneof=free plus premium pro b2b"`
	Since     *time.Time `json:"since,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// UserPreferences 通知、界面与 AI 个性化偏好
type UserPreferences struct {
	Notifications struct {
		Progress   *bool `json:"progress"`
		Promotions *bool `json:"promotions"`
		Security   *bool `json:"security"`
	} `json:"notifications"`
	UI struct {
		Theme    string `json:"theme" validate:"oneof=light dark auto"`
		FontSize string `json:"fontSize" validate:"oneof=sm md lg"`
	} `json:"ui"`
	AIPersonalization struct {
		Consent                 *bool    `json:"consent"`
		AllowedCulturalExamples *bool    `json:"allowedCulturalExamples"`
		Keywords                []string `json:"keywords"`
	} `json:"aiPersonalization"`
}

// UserProgress 学习路线进度
type UserProgress struct {
	Routes []RouteProgress `json:"routes"`
}

// RouteProgress 单条路线进度
type RouteProgress struct {
	RouteID       string     `json:"routeId" validate:"omitempty,ulid"`
	Percent       float64    `json:"percent" validate:"gte=0,lte=100"`
	LastVisitedAt *time.Time `json:"lastVisitedAt,omitempty"`
}

// UserSecurity MFA 与登录锁定
type UserSecurity struct {
	MFAEnabled   bool       `json:"mfaEnabled"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	FailedLogins int        `json:"failedLogins" validate:"gte=0"`
	LockedUntil  *time.Time `json:"lockedUntil,omitempty"`
}

func (User) TableName() string { return "users" }

func (User) ModelName() string { return "User" }

func (*User) HasAuthorField() bool { return false }

func (*User) DeclaredFields() []Field { return DeclaredOf(User{}) }

// ApplyDefaults 规范化邮箱并补全默认值
func (u *User) ApplyDefaults() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	trimAll(&u.Name)
	defaultString(&u.AuthProvider, "local")
	defaultString(&u.Language, "en")
	defaultString(&u.AcademicLevel, "others")
	defaultString(&u.Role, "user")

	plan := u.Plan.Data()
	defaultString(&plan.Tier, "free")
	u.Plan = datatypes.NewJSONType(plan)

	prefs := u.Preferences.Data()
	defaultTrue(&prefs.Notifications.Progress)
	defaultTrue(&prefs.Notifications.Security)
	if prefs.Notifications.Promotions == nil {
		off := false
		prefs.Notifications.Promotions = &off
	}
	defaultString(&prefs.UI.Theme, "auto")
	defaultString(&prefs.UI.FontSize, "md")
	defaultTrue(&prefs.AIPersonalization.Consent)
	defaultTrue(&prefs.AIPersonalization.AllowedCulturalExamples)
	if prefs.AIPersonalization.Keywords == nil {
		prefs.AIPersonalization.Keywords = []string{}
	}
	u.Preferences = datatypes.NewJSONType(prefs)

	progress := u.Progress.Data()
	if progress.Routes == nil {
		progress.Routes = []RouteProgress{}
	}
	u.Progress = datatypes.NewJSONType(progress)
}

func (u *User) Validate() error {
	plan, prefs, progress, security := u.Plan.Data(), u.Preferences.Data(), u.Progress.Data(), u.Security.Data()
	return check(u.ModelName(), u,
		nestedCheck("plan", &plan),
		nestedCheck("preferences", &prefs),
		nestedCheck("security", &security),
		func(agg *validator.ValidationError) {
			for _, r := range progress.Routes {
				agg.Merge("progress.routes", validate.ValidatePrefixed("progress.routes", &r))
			}
		},
	)
}

func (u *User) Serialize() (map[string]any, error) { return serialize(u) }
