package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/marcelsud/bot-gateway/archive"
)

/* Command and callback-data encodings shared between keyboards and the
 * dispatcher. Callback data is limited to 64 bytes by the platform, so the
 * encodings stay short and positional.
 */

var (
	tokenRe           = regexp.MustCompile(`[0-9]+:[0-9a-zA-Z-_]+`)
	downloadCommandRe = regexp.MustCompile(`^/d_([0-9]+)$`)
	archiveCommandRe  = regexp.MustCompile(`^/da_([sat])_([0-9]+)$`)
	downloadQueryRe   = regexp.MustCompile(`^d_([0-9]+)_(\w+)$`)
	archiveQueryRe    = regexp.MustCompile(`^da_([sat])_([0-9]+)_(\w+)$`)
	checkQueryRe      = regexp.MustCompile(`^check_da_(\w+)$`)
	langQueryRe       = regexp.MustCompile(`^lang_(on|off)_([a-zA-Z]+)$`)
)

const settingsQueryData = "lang_settings"

// extractToken finds a bot token anywhere in a message, typically inside a
// forwarded BotFather confirmation.
func extractToken(text string) (string, bool) {
	token := tokenRe.FindString(text)
	return token, token != ""
}

// commandWord returns the leading command of a message with any @botname
// suffix stripped, or "" when the message is not a command.
func commandWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	word, _, _ := strings.Cut(fields[0], "@")
	return word
}

func downloadQueryData(bookID int64, format string) string {
	return fmt.Sprintf("d_%d_%s", bookID, format)
}

func parseDownloadQuery(data string) (bookID int64, format string, ok bool) {
	m := downloadQueryRe.FindStringSubmatch(data)
	if m == nil {
		return 0, "", false
	}
	bookID, _ = strconv.ParseInt(m[1], 10, 64)
	return bookID, m[2], true
}

func archiveQueryData(obj archive.ObjectType, id int64, format string) string {
	return fmt.Sprintf("da_%s_%d_%s", objectCode(obj), id, format)
}

func parseArchiveQuery(data string) (obj archive.ObjectType, id int64, format string, ok bool) {
	m := archiveQueryRe.FindStringSubmatch(data)
	if m == nil {
		return 0, 0, "", false
	}
	obj, ok = objectFromCode(m[1])
	if !ok {
		return 0, 0, "", false
	}
	id, _ = strconv.ParseInt(m[2], 10, 64)
	return obj, id, m[3], true
}

func checkQueryData(jobID string) string {
	return "check_da_" + jobID
}

func parseCheckQuery(data string) (jobID string, ok bool) {
	m := checkQueryRe.FindStringSubmatch(data)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func langQueryData(enable bool, code string) string {
	if enable {
		return "lang_on_" + code
	}
	return "lang_off_" + code
}

func parseLangQuery(data string) (code string, enable, ok bool) {
	m := langQueryRe.FindStringSubmatch(data)
	if m == nil {
		return "", false, false
	}
	return m[2], m[1] == "on", true
}

func parseDownloadCommand(word string) (bookID int64, ok bool) {
	m := downloadCommandRe.FindStringSubmatch(word)
	if m == nil {
		return 0, false
	}
	bookID, _ = strconv.ParseInt(m[1], 10, 64)
	return bookID, true
}

func parseArchiveCommand(word string) (obj archive.ObjectType, id int64, ok bool) {
	m := archiveCommandRe.FindStringSubmatch(word)
	if m == nil {
		return 0, 0, false
	}
	obj, ok = objectFromCode(m[1])
	if !ok {
		return 0, 0, false
	}
	id, _ = strconv.ParseInt(m[2], 10, 64)
	return obj, id, true
}

func objectCode(obj archive.ObjectType) string {
	switch obj {
	case archive.Author:
		return "a"
	case archive.Translator:
		return "t"
	default:
		return "s"
	}
}

func objectFromCode(code string) (archive.ObjectType, bool) {
	switch code {
	case "s":
		return archive.Sequence, true
	case "a":
		return archive.Author, true
	case "t":
		return archive.Translator, true
	default:
		return 0, false
	}
}
