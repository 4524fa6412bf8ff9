package bus

// Topics shared by the logger services.
//
//	logger/status            retained types.Status
//	logger/media             types.MediaReport after each mount/unmount
//	logger/session/closed    types.SessionSummary
//	feedback/indicator       types.IndicatorSet
//	feedback/beep            types.BeepSet
//	feedback/notice          types.Notice
//	config/<section>         retained config section

func TopicStatus() Topic        { return T("logger", "status") }
func TopicMedia() Topic         { return T("logger", "media") }
func TopicSessionClosed() Topic { return T("logger", "session", "closed") }

func TopicFeedback() Topic  { return T("feedback") }
func TopicIndicator() Topic { return TopicFeedback().Append("indicator") }
func TopicBeep() Topic      { return TopicFeedback().Append("beep") }
func TopicNotice() Topic    { return TopicFeedback().Append("notice") }

func TopicConfig(section string) Topic { return T("config", section) }
