package inquiry

import "time"

type Inquiry struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	Reference string    `json:"reference" gorm:"unique;not null"`
	Subject   string    `json:"subject" gorm:"not null"`
	Status    string    `json:"status" gorm:"type:varchar(50);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Inquiry) TableName() string {
	return "inquiries"
}

type ListResponse struct {
	Inquiries []*Inquiry `json:"inquiries"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
