package middleware

// Client-facing messages. The frontend matches on some of them, keep them stable.
const (
	MsgMissingToken      = "No autorizado. Token requerido."
	MsgMalformedToken    = "Token inválido"
	MsgUserNotFound      = "Usuario no encontrado o inactivo"
	MsgTokenVerification = "Error al verificar token"
	MsgTooManyRequests   = "Demasiadas solicitudes. Intente nuevamente en %d segundos."
	MsgInternalError     = "Error interno del servidor"
)
