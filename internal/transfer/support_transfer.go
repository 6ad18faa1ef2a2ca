package transfer

type ConversationStart struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
}

type SupportReply struct {
	Content   string `json:"content"`
	Provider  string `json:"provider"`
	MessageID string `json:"message_id"`
}

type FeedbackRequest struct {
	MessageID string `json:"message_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type SupportStats struct {
	TotalConversations int     `json:"total_conversations"`
	TotalMessages      int     `json:"total_messages"`
	TotalFeedback      int     `json:"total_feedback"`
	PositiveFeedback   int     `json:"positive_feedback"`
	SatisfactionRate   float64 `json:"satisfaction_rate"`
	KnowledgeBaseSize  int     `json:"knowledge_base_size"`
}
