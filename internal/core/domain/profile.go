package domain

import (
	"github.com/google/uuid"
)

// Source идентифицирует площадку, с которой приходят объявления.
type Source string

const (
	SourceYad2     Source = "yad2"
	SourceFacebook Source = "facebook"
)

// Channel идентифицирует канал доставки уведомлений.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// PriceRange задает допустимый диапазон цены. Границы включительны.
// Нулевое значение Max означает "без верхней границы".
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains проверяет, попадает ли цена в диапазон.
func (r PriceRange) Contains(price int) bool {
	if price < r.Min {
		return false
	}
	if r.Max > 0 && price > r.Max {
		return false
	}
	return true
}

// IsConstrained сообщает, задан ли диапазон вообще.
func (r PriceRange) IsConstrained() bool {
	return r.Min > 0 || r.Max > 0
}

// RoomRange задает допустимое число комнат. Половинные значения легальны (2.5).
type RoomRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r RoomRange) Contains(rooms float64) bool {
	if rooms < r.Min {
		return false
	}
	if r.Max > 0 && rooms > r.Max {
		return false
	}
	return true
}

func (r RoomRange) IsConstrained() bool {
	return r.Min > 0 || r.Max > 0
}

// LocationCriteria описывает географические предпочтения профиля.
// Пустой срез означает отсутствие ограничения на этом уровне.
type LocationCriteria struct {
	Cities        []string `json:"cities"`
	Neighborhoods []string `json:"neighborhoods"`
	Streets       []string `json:"streets"`
}

func (c LocationCriteria) IsConstrained() bool {
	return len(c.Cities) > 0 || len(c.Neighborhoods) > 0 || len(c.Streets) > 0
}

// ScanTargets описывает, где именно искать для данного профиля.
type ScanTargets struct {
	Yad2URL          string   `json:"yad2_url"`
	FacebookGroupIDs []string `json:"facebook_group_ids"`
}

// ChannelConfig - настройка одного канала доставки внутри профиля.
type ChannelConfig struct {
	Enabled   bool   `json:"enabled"`
	Recipient string `json:"recipient"`
}

// NotificationChannels - все каналы доставки профиля.
type NotificationChannels struct {
	Telegram ChannelConfig `json:"telegram"`
	WhatsApp ChannelConfig `json:"whatsapp"`
	Email    ChannelConfig `json:"email"`
}

// ByChannel возвращает конфигурацию для указанного канала.
func (n NotificationChannels) ByChannel(ch Channel) (ChannelConfig, bool) {
	switch ch {
	case ChannelTelegram:
		return n.Telegram, true
	case ChannelWhatsApp:
		return n.WhatsApp, true
	case ChannelEmail:
		return n.Email, true
	}
	return ChannelConfig{}, false
}

// SearchProfile - профиль поиска пользователя. Это центральная сущность:
// сканер обходит источники по ScanTargets и сверяет каждое объявление
// с критериями профиля.
type SearchProfile struct {
	ID                uuid.UUID            `json:"id"`
	Name              string               `json:"name"`
	Active            bool                 `json:"active"`
	Price             PriceRange           `json:"price"`
	Rooms             RoomRange            `json:"rooms"`
	Location          LocationCriteria     `json:"location"`
	PropertyTypes     []string             `json:"property_types"`
	PreferredFeatures []string             `json:"preferred_features"`
	Targets           ScanTargets          `json:"scan_targets"`
	Channels          NotificationChannels `json:"notification_channels"`
}

// EnabledChannels перечисляет каналы, включенные в профиле.
func (p *SearchProfile) EnabledChannels() []Channel {
	var out []Channel
	if p.Channels.Telegram.Enabled {
		out = append(out, ChannelTelegram)
	}
	if p.Channels.WhatsApp.Enabled {
		out = append(out, ChannelWhatsApp)
	}
	if p.Channels.Email.Enabled {
		out = append(out, ChannelEmail)
	}
	return out
}
