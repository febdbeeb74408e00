package domain

type Timezone struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(64);not null;uniqueIndex" json:"name"`
}

type MobileOperator struct {
	ID     int64  `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"type:varchar(16);not null" json:"name"`
	Prefix int    `gorm:"not null" json:"prefix"`
}

type Tag struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(256);not null" json:"name"`
}

// Client is a message recipient. The engine only reads clients.
type Client struct {
	ID         int64          `gorm:"primaryKey" json:"id"`
	Phone      string         `gorm:"type:varchar(16);not null" json:"phone"`
	OperatorID int64          `gorm:"not null;index" json:"operator_id"`
	Operator   MobileOperator `json:"-"`
	TagID      *int64         `gorm:"index" json:"tag_id"`
	Tag        *Tag           `json:"-"`
	TimezoneID int64          `gorm:"not null" json:"timezone_id"`
	Timezone   Timezone       `json:"-"`
}

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{&Timezone{}, &MobileOperator{}, &Tag{}, &Client{}, &Campaign{}, &Message{}}
}
