package models

// AuditEvent описывает принятую пачку значений.
// Keys перечислены без повторов в порядке первого появления.
type AuditEvent struct {
	Timestamp int64    `json:"ts"`
	Username  string   `json:"username,omitempty"`
	Machine   string   `json:"machine"`
	Keys      []string `json:"keys"`
	Count     int      `json:"count"`
	IPAddress string   `json:"ip_address"`
}

// AuditObserver получает события аудита.
type AuditObserver interface {
	OnAuditEvent(event AuditEvent) error
}

// AuditSubject рассылает события аудита подписанным наблюдателям.
type AuditSubject interface {
	Attach(observer AuditObserver)
	Detach(observer AuditObserver)
	Notify(event AuditEvent)
}
