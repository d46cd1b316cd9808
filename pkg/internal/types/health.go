package types

// HealthResponse 单个组件的健康状态.
type HealthResponse struct {
	Component string `json:"component"       example:"kv"`
	Status    string `json:"status"          example:"ok"`
	Type      string `json:"type,omitempty"  example:"redis"`
	Error     string `json:"error,omitempty"`
}
