package models

// Pokemon — содержимое слота команды: имя и ссылка на спрайт.
// После выбора не мутирует, копируется по значению.
type Pokemon struct {
	Name   string `json:"name"`
	Sprite string `json:"sprite"`
}
