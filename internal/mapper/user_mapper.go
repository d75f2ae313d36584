package mapper

import (
	"encoding/json"

	"financebot-be/internal/entity"
	"financebot-be/internal/model"

	"gorm.io/datatypes"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

type userMetadata struct {
	Name string `json:"name,omitempty"`
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}

	var meta userMetadata
	if len(u.Metadata) > 0 {
		_ = json.Unmarshal(u.Metadata, &meta)
	}

	return &entity.User{
		Id:           u.Id,
		Email:        u.Email,
		Name:         meta.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}

	meta, _ := json.Marshal(userMetadata{Name: u.Name})

	return &model.User{
		Id:           u.Id,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Metadata:     datatypes.JSON(meta),
		CreatedAt:    u.CreatedAt,
	}
}
