package model

// Role 令牌中携带的全局角色（封闭枚举）
type Role string

const (
	RoleStudent    Role = "student"
	RoleTA         Role = "ta"
	RoleInstructor Role = "instructor"
)

// ParseRole 将令牌中的字符串转换为 Role，未知取值返回 false
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleTA, RoleInstructor:
		return Role(s), true
	default:
		return "", false
	}
}

// RoleSet 允许的角色集合
type RoleSet []Role

var (
	// StaffRoles 教学人员：可发布内容、布置与批改作业
	StaffRoles = RoleSet{RoleInstructor, RoleTA}
	// SubmitterRoles 可提交作业的角色；助教也可提交，便于演练提交流程
	SubmitterRoles = RoleSet{RoleStudent, RoleTA}
	// AnyRole 任一已认证身份
	AnyRole = RoleSet{RoleStudent, RoleTA, RoleInstructor}
)

// Contains 判断角色是否在集合内
func (s RoleSet) Contains(r Role) bool {
	for _, allowed := range s {
		if allowed == r {
			return true
		}
	}
	return false
}

// Identity 通过令牌校验后的调用方身份
type Identity struct {
	UserID string
	Role   Role
}

// Relation 用户与某个课堂之间的关系
type Relation int

const (
	RelationInstructor Relation = iota + 1
	RelationTA
	RelationStudent
)

var (
	// StaffRelations 课堂的主讲教师或助教
	StaffRelations = []Relation{RelationInstructor, RelationTA}
	// SubmitterRelations 课堂的学生或助教
	SubmitterRelations = []Relation{RelationStudent, RelationTA}
	// AllRelations 任意成员关系
	AllRelations = []Relation{RelationInstructor, RelationTA, RelationStudent}
)

// String 返回关系名称
func (r Relation) String() string {
	switch r {
	case RelationInstructor:
		return "instructor"
	case RelationTA:
		return "ta"
	case RelationStudent:
		return "student"
	default:
		return "unknown"
	}
}
