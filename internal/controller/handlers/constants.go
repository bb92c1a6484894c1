package handlers

// Формат дат в сообщениях бота
const (
	displayDateLayout = "02.01.2006"
	maxLessonsInReply = 20
)

// Подсказки по использованию команд
const (
	usageTickets    = "Использование: /tickets <id студента>"
	usageAddTickets = "Использование: /addtickets <id студента> <количество>"
	usageLessons    = "Использование: /lessons <id студента> [ГГГГ-ММ-ДД]"
	usageSchedule   = "Использование: /schedule <id учителя> [ГГГГ-ММ-ДД]"
	usageCancel     = "Использование: /cancel <id занятия> <причина>"
)
