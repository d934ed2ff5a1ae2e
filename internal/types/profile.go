package types

// UpdateProfileRequest represents a partial profile update; nil fields are left unchanged
type UpdateProfileRequest struct {
	Bio         *string `json:"bio,omitempty"`
	ClearAvatar bool    `json:"clear_avatar,omitempty"`
}
