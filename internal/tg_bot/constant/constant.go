package constant

const (
	EMOJI_CHECK_MARK   = "\U00002714\U0000FE0F" //✔️
	EMOJI_WHITE_SQUARE = "\U00002B1C"           //⬜
	EMOJI_BELL         = "\U0001F514"           //🔔
	EMOJI_WAVING_HAND  = "\U0001F44B"           //👋

	COMMAND_START       = "start"
	COMMAND_HELP        = "help"
	COMMAND_REMIND      = "remind"
	COMMAND_REMIND_ARGS = "remindi"
	COMMAND_CANCEL      = "cancel"
	COMMAND_ADD_TODO    = "addtodo"
	COMMAND_ADD_TODO_I  = "addtodoi"
	COMMAND_TODOS       = "todos"
	COMMAND_MARK_TODO   = "marktodo"
	COMMAND_REMOVE_TODO = "removetodo"

	TEXT_START   = "This is a simple reminder, type /help to see how to use it."
	TEXT_HELLO   = "Hello, %s " + EMOJI_WAVING_HAND
	TEXT_UNKNOWN = "Sorry, I didn't understand that command."
	TEXT_CANCEL  = "Cancelled"
	TEXT_NO_ARGS = "Provide args"
	TEXT_HELP    = "/remind - set reminder step by step\n" +
		"/remindi `day` `hour` `:minute` `:message` - set reminder, \":\" are optional arguments\n" +
		"/addtodo - add todo step by step\n" +
		"/addtodoi `:#category` `message` - add todo in one message\n" +
		"/todos `:category` - show todos\n" +
		"/marktodo `id` `...` - mark todos as done\n" +
		"/removetodo `id` `...` - remove todos\n" +
		"/cancel - stop current dialog"

	TEXT_ERROR       = "Something went wrong, try again later"
	TEXT_BAD_DAY     = "Day should be from 1 to 31"
	TEXT_BAD_MINUTE  = "Minute should be from 0 to 59"
	TEXT_BAD_DATE    = "Can't make a date from day %s, hour %s and minute %d"
	TEXT_NO_TODOS    = "No todos"
	TEXT_TODOS       = "*Todos*"
	TEXT_MARKED      = "Marked as done: %s"
	TEXT_REMOVED     = "Removed: %s"
	TEXT_NOT_FOUND   = "Not found: %s"
	TEXT_INVALID_IDS = "Not ids: %s"

	TEXT_REMINDING      = EMOJI_BELL + " Reminding you!"
	TEXT_DATE_IN_FUTURE = "Date must be in future"
	TEXT_WILL_REMIND    = "Will remind you %s (%s)"
	TEXT_REMINDER_BODY  = "\nReminder: %s"

	// DATE_FORMAT renders the absolute fire time in confirmations.
	DATE_FORMAT = "15:04, 2 January, Monday, 2006"
)
