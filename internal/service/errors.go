package service

import (
	"errors"
)

const (
	BadRequest          = 400
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
	BadGateway          = 502
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid        = errors.New("Parâmetros inválidos")
	ErrCompetitorDuplicate = errors.New("Já existe um concorrente com este ID do YouTube")
	ErrCompetitorNotFound  = errors.New("Concorrente não encontrado")
	ErrCompetitorNoChannel = errors.New("Concorrente sem canal do YouTube")
	ErrUnavailable         = errors.New("Serviço indisponível, tente novamente")
	ErrGatewayFailed       = errors.New("Falha ao coletar métricas do canal")
	UnExpectedError        = errors.New("Erro inesperado, tente novamente mais tarde")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:        BadRequest,
	ErrCompetitorDuplicate: Conflict,
	ErrCompetitorNotFound:  NotFound,
	ErrCompetitorNoChannel: BadRequest,
	ErrUnavailable:         ServiceUnavailable,
	ErrGatewayFailed:       BadGateway,
	UnExpectedError:        InternalServerError,
}

// WarnEnrichmentFailed 新增成功但采集失败时返回给前端的提示
const WarnEnrichmentFailed = "Concorrente adicionado, mas a coleta de métricas falhou"
