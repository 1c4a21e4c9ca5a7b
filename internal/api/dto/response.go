package dto

// Response 统一返回结构，HTTP 状态码固定 200，业务码放在 code
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}
