package models

// Типы данных ключей на стороне бэкенда.
const (
	DataTypeFloat   = "float"
	DataTypeMessage = "message"
)

// MaxMessageLength ограничивает длину значения для ключей типа message.
const MaxMessageLength = 200

// Credentials содержит учётные данные для входа.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse ответ на успешный вход.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse универсальный ответ бэкенда с текстовым сообщением (в том числе об ошибке).
type MessageResponse struct {
	Message string `json:"message"`
}

// NewUser описывает регистрацию пользователя.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// User публичное представление пользователя (без пароля).
type User struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// UsersResponse ответ на список пользователей.
type UsersResponse struct {
	Users []User `json:"users"`
}

// PasswordUpdate запрос смены пароля пользователя.
type PasswordUpdate struct {
	Username    string `json:"username"`
	NewPassword string `json:"newPassword"`
}

// UsernameRequest тело запроса удаления пользователя.
type UsernameRequest struct {
	Username string `json:"username"`
}

// Device описывает зарегистрированное устройство.
type Device struct {
	DeviceID    string `json:"deviceId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DeviceUpdate частичное обновление устройства: nil-поля не меняются.
type DeviceUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// DevicesResponse ответ на список устройств.
type DevicesResponse struct {
	Devices []Device `json:"devices"`
}

// Range задаёт диапазон допустимых значений ключа.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Key описывает ключ (тип данных) метрики.
//
// MissingDataAllowance задаётся в секундах.
type Key struct {
	KeyName              string   `json:"keyName"`
	DataType             string   `json:"dataType"`
	NormalRange          *Range   `json:"normalRange,omitempty"`
	WarningRange         *Range   `json:"warningRange,omitempty"`
	MissingDataAllowance *float64 `json:"missingDataAllowance,omitempty"`
	EmailAlertRange      *Range   `json:"emailAlertRange,omitempty"`
}

// KeyUpdate частичное обновление ключа.
type KeyUpdate struct {
	DataType             *string  `json:"dataType,omitempty"`
	NormalRange          *Range   `json:"normalRange,omitempty"`
	WarningRange         *Range   `json:"warningRange,omitempty"`
	MissingDataAllowance *float64 `json:"missingDataAllowance,omitempty"`
	EmailAlertRange      *Range   `json:"emailAlertRange,omitempty"`
}

// KeysResponse ответ на список ключей. Старые версии бэкенда отдают поле dataTypes.
type KeysResponse struct {
	Keys      []Key `json:"keys,omitempty"`
	DataTypes []Key `json:"dataTypes,omitempty"`
}

// All возвращает ключи из того поля, которое заполнено.
func (r KeysResponse) All() []Key {
	if len(r.DataTypes) > 0 {
		return r.DataTypes
	}
	return r.Keys
}

// KeyResponse ответ на запрос, создание или изменение одного ключа.
type KeyResponse struct {
	Message  string `json:"message,omitempty"`
	DataType Key    `json:"dataType"`
}

// DeviceResponse ответ на создание или изменение устройства.
type DeviceResponse struct {
	Message string `json:"message,omitempty"`
	Device  Device `json:"device"`
}

// TimedValue значение ключа с меткой времени.
type TimedValue struct {
	Timestamp string `json:"timestamp"`
	Value     any    `json:"value"`
}

// Series последовательность значений одного ключа.
type Series struct {
	Type   string       `json:"type"`
	Values []TimedValue `json:"values"`
}

// DailyResponse ответ /data/daily: ряды по имени ключа.
type DailyResponse struct {
	Data map[string]Series `json:"data"`
}

// Aggregate агрегаты числового ключа за месяц.
//
// AUC считается методом трапеций в единицах "значение * секунда".
type Aggregate struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	AUC    float64 `json:"auc"`
}

// MonthlyResponse ответ /data/month. Data равен nil, если данных нет.
type MonthlyResponse struct {
	Data    *Aggregate `json:"data"`
	Message string     `json:"message,omitempty"`
}

// BulkResponse ответ на пакетную загрузку.
type BulkResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}
