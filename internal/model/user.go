package model

import (
	"time"
)

type Department string

// 部门取值固定
const (
	HumanResources         Department = "Human Resources"
	InformationTechnology  Department = "Information Technology"
	Finance                Department = "Finance"
	Operations             Department = "Operations"
	Sales                  Department = "Sales"
	Marketing              Department = "Marketing"
	CustomerService        Department = "Customer Service"
	Administration         Department = "Administration"
	Legal                  Department = "Legal"
	ResearchAndDevelopment Department = "Research & Development"
)

var Departments = []Department{
	HumanResources,
	InformationTechnology,
	Finance,
	Operations,
	Sales,
	Marketing,
	CustomerService,
	Administration,
	Legal,
	ResearchAndDevelopment,
}

func IsValidDepartment(d string) bool {
	for _, dep := range Departments {
		if string(dep) == d {
			return true
		}
	}
	return false
}

type AdminLevel string

const (
	AdminNone AdminLevel = "none"
	AdminFull AdminLevel = "full"
)

// swagger:model User
type User struct {
	UUIDBase
	EmployeeID           string           `gorm:"size:64;uniqueIndex;not null" json:"employeeId"`
	FullName             string           `gorm:"size:100;not null" json:"fullName"`
	Email                string           `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Department           Department       `gorm:"size:64;not null" json:"department"`
	AssignedModules      []AssignedModule `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"assignedModules"`
	OverallScore         int              `gorm:"default:0" json:"overallScore"`
	OverallPercentage    int              `gorm:"default:0" json:"overallPercentage"`
	TrainingCompleted    bool             `gorm:"default:false" json:"trainingCompleted"`
	CertificateGenerated bool             `gorm:"default:false" json:"certificateGenerated"`
	IsAdmin              bool             `gorm:"default:false" json:"isAdmin"`
	AdminLevel           AdminLevel       `gorm:"size:16;default:'none'" json:"adminLevel"`
	LastLogin            *time.Time       `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// AssignedModule 用户被分配的模块及其进度；ModuleName 是分配时的快照
// swagger:model AssignedModule
type AssignedModule struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID         string     `gorm:"type:varchar(36);index;not null" json:"-"`
	Position       int        `gorm:"not null" json:"-"`
	ModuleID       string     `gorm:"size:64;not null" json:"moduleId"`
	ModuleName     string     `gorm:"size:255;not null" json:"moduleName"`
	Completed      bool       `gorm:"default:false" json:"completed"`
	Score          int        `gorm:"default:0" json:"score"`
	TotalQuestions int        `gorm:"default:0" json:"totalQuestions"`
	Percentage     int        `gorm:"default:0" json:"percentage"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

func (AssignedModule) TableName() string {
	return "assigned_modules"
}

// FindModule 返回指定模块在 AssignedModules 中的下标，不存在时为 -1
func (u *User) FindModule(moduleID string) int {
	for i := range u.AssignedModules {
		if u.AssignedModules[i].ModuleID == moduleID {
			return i
		}
	}
	return -1
}

// Clone 深拷贝，内存存储用它隔离调用方
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	if u.AssignedModules != nil {
		c.AssignedModules = make([]AssignedModule, len(u.AssignedModules))
		for i, m := range u.AssignedModules {
			if m.CompletedAt != nil {
				t := *m.CompletedAt
				m.CompletedAt = &t
			}
			c.AssignedModules[i] = m
		}
	}
	return &c
}

// Progress 进度汇总
// swagger:model Progress
type Progress struct {
	CompletedModules     int              `json:"completedModules"`
	TotalModules         int              `json:"totalModules"`
	ProgressPercentage   int              `json:"progressPercentage"`
	OverallScore         int              `json:"overallScore"`
	OverallPercentage    int              `json:"overallPercentage"`
	TrainingCompleted    bool             `json:"trainingCompleted"`
	CertificateGenerated bool             `json:"certificateGenerated"`
	Modules              []AssignedModule `json:"modules"`
}
