package httpapi

import (
	"time"

	"github.com/avealov/rulehub/internal/server/models"
	"github.com/avealov/rulehub/internal/server/services"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type requestResetRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type changeUsernameRequest struct {
	Username string `json:"username" binding:"required"`
}

type changeEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

type updateProfileRequest struct {
	Bio                *string `json:"bio"`
	IsProfilePublic    *bool   `json:"is_profile_public"`
	IsCollectionPublic *bool   `json:"is_collection_public"`
}

type createCommentRequest struct {
	GameName    string `json:"game_name" binding:"required"`
	Page        string `json:"page" binding:"required"`
	CommentText string `json:"comment_text" binding:"required"`
}

type updateCommentRequest struct {
	CommentText string `json:"comment_text" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func newTokenResponse(pair *services.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "opaque",
		ExpiresIn:    pair.ExpiresIn,
	}
}

type userResponse struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email,omitempty"`
	Role               string    `json:"role"`
	IsEmailVerified    bool      `json:"is_email_verified"`
	Bio                *string   `json:"bio,omitempty"`
	IsProfilePublic    bool      `json:"is_profile_public"`
	IsCollectionPublic bool      `json:"is_collection_public"`
	CreatedAt          time.Time `json:"created_at"`
}

// newUserResponse renders a user. The email is only included when the user
// looks at their own account.
func newUserResponse(user *models.User, includeEmail bool) userResponse {
	resp := userResponse{
		ID:                 user.ID,
		Username:           user.Username,
		Role:               user.Role,
		IsEmailVerified:    user.IsEmailVerified,
		Bio:                user.Bio,
		IsProfilePublic:    user.IsProfilePublic,
		IsCollectionPublic: user.IsCollectionPublic,
		CreatedAt:          user.CreatedAt,
	}
	if includeEmail {
		resp.Email = user.Email
	}
	return resp
}

type commentResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	GameName    string    `json:"game_name"`
	Page        string    `json:"page"`
	CommentText string    `json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newCommentResponse(c *models.Comment) commentResponse {
	return commentResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		Username:    c.Username,
		GameName:    c.GameName,
		Page:        c.Page,
		CommentText: c.CommentText,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
