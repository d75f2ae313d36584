package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// FinanceBot persona, always answered in Spanish.
	FinanceBotSystemPrompt = `Eres un asesor financiero personal experto y amigable. Tu nombre es FinanceBot.

Tu especialidad es ayudar a las personas con:
- Creación y gestión de presupuestos personales
- Estrategias de ahorro efectivas
- Consejos de inversión para principiantes y avanzados
- Planes para salir de deudas
- Control y optimización de gastos personales
- Planificación financiera a corto y largo plazo

Características de tus respuestas:
- Siempre mantén un tono amigable y profesional
- Proporciona consejos prácticos y accionables
- Usa ejemplos concretos cuando sea posible
- Adapta tus consejos al nivel de conocimiento del usuario
- Si no tienes información suficiente, pide más detalles
- Evita dar consejos de inversión específicos sin conocer la situación completa del usuario
- Siempre recuerda que cada situación financiera es única

Responde en español y mantén tus respuestas concisas pero informativas.`

	// Substituted as the assistant reply when the advisor cannot answer.
	AdvisorFallbackReply = "Lo siento, hubo un error al procesar tu mensaje. Por favor, intenta de nuevo."
)

// Response messages kept stable for existing clients.
const (
	MsgCredentialsRequired = "Email y contraseña son requeridos"
	MsgLoginSuccess        = "Login exitoso"
	MsgRegisterSuccess     = "Registro exitoso. Revisa tu email para confirmar tu cuenta."
	MsgLogoutSuccess       = "Logged out successfully"
	MsgInternalError       = "Error interno del servidor"

	MsgTurnBadRequest     = "bad request"
	MsgTurnRecorded       = "Chat session creada"
	MsgTurnNotRecorded    = "Chat turn not recorded"
	MsgSessionsBadRequest = "Bad request"
	MsgSessionsFetched    = "Chat sessions fetched successfully"
	MsgMessagesFetched    = "Chat messages fetched successfully"
	MsgMessagesRequired   = "Messages are required"
	MsgAdviceRequired     = "Message is required"
	MsgLoginFailed        = "El usuario no existe o las credenciales son invalidas"
)

// Event topics and types.
const (
	TopicTurnRecorded     = "chat.turn.recorded"
	EventChatTurnRecorded = "CHAT_TURN_RECORDED"
	EventUserRegistered   = "USER_REGISTERED"
	EventUserLogin        = "USER_LOGIN"

	// Frame type pushed to websocket clients.
	FeedFrameTurn = "turn"
)
