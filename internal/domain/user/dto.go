package user

type RegisterInput struct {
	Email      string `json:"email" form:"email" binding:"required,email" example:"alice@lab.edu"`
	Password   string `json:"password" form:"password" binding:"required,min=6" example:"password123"`
	Name       string `json:"name" form:"name" binding:"required,max=100" example:"Alice Chen"`
	Department string `json:"department" form:"department" binding:"max=100" example:"Computer Science"`
	StudentID  string `json:"student_id" form:"student_id" binding:"max=50" example:"B10901001"`
}

type LoginInput struct {
	Email    string `json:"email" form:"email" binding:"required,email" example:"alice@lab.edu"`
	Password string `json:"password" form:"password" binding:"required" example:"password123"`
}

// CompleteRegistrationInput finishes an OAuth sign-up for a first-time user.
type CompleteRegistrationInput struct {
	Token      string `json:"token" form:"token" binding:"required"`
	Name       string `json:"name" form:"name" binding:"required,max=100" example:"Alice Chen"`
	Department string `json:"department" form:"department" binding:"max=100" example:"Computer Science"`
	StudentID  string `json:"student_id" form:"student_id" binding:"max=50" example:"B10901001"`
}

type UpdateProfileInput struct {
	Name       *string `json:"name" form:"name" binding:"omitempty,min=1,max=100" example:"Alice Chen"`
	Department *string `json:"department" form:"department" binding:"omitempty,max=100" example:"Computer Science"`
	StudentID  *string `json:"student_id" form:"student_id" binding:"omitempty,max=50" example:"B10901001"`
}

type ChangePasswordInput struct {
	Password        string `json:"password" form:"password" binding:"required,min=6" example:"newPass123"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required" example:"newPass123"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" form:"email" binding:"required,email" example:"alice@lab.edu"`
}

type ResetPasswordInput struct {
	Token           string `json:"token" form:"token" binding:"required"`
	Password        string `json:"password" form:"password" binding:"required,min=6" example:"newPass123"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required" example:"newPass123"`
}
