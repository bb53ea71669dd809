package models

import "time"

type TrainerRole string

const (
	RoleTrainer TrainerRole = "trainer"
	RoleAdmin   TrainerRole = "admin"
)

// Trainer представляет зарегистрированного тренера лиги.
// Пароль хранится и сравнивается как есть: сервер сообщества не хранит
// ничего ценного, и поведение должно совпадать с исходным бэкендом.
type Trainer struct {
	ID       int         `json:"id" db:"id"`
	Nick     string      `json:"nick" db:"nick"`
	Password string      `json:"-" db:"password"`
	Role     TrainerRole `json:"role" db:"role"`

	Badges    []string  `json:"insignias" db:"badges"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Кастомный скин для "пиратских" аккаунтов; ключ в R2, не сырой blob.
	SkinKey *string `json:"-" db:"skin_key"`
	SkinURL *string `json:"custom_skin,omitempty" db:"-"`
}

type Credentials struct {
	Nick     string `json:"nick"`
	Password string `json:"password"`
}
