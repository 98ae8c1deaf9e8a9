package complete

// Vocabulary is the static command language known locally.
type Vocabulary struct {
	// Commands is the ordered command list.
	Commands []string
	// Subcommands maps a command to its ordered subcommands.
	Subcommands map[string][]string
	// Flags maps a command prefix ("post create", "login") to its flags.
	Flags map[string][]string
	// GuestOnly commands are hidden once authenticated.
	GuestOnly []string
	// AuthOnly commands are hidden from guests.
	AuthOnly []string
}

// DefaultVocabulary returns the blog shell's command set.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Commands: []string{
			"ls", "cd", "pwd", "mkdir", "rm", "mv", "cp", "clear", "logout", "id", "register", "login", "help",
			"post", "upload", "image", "config", "profile", "theme",
		},
		Subcommands: map[string][]string{
			"post":    {"create", "edit", "publish", "delete", "list"},
			"image":   {"list", "delete", "upload"},
			"config":  {"show", "set"},
			"profile": {"show", "update"},
			"theme":   {"light", "dark"},
		},
		Flags: map[string][]string{
			"post create":    {"--title", "--category", "--tags"},
			"post edit":      {"--id", "--title"},
			"config set":     {"--theme", "--language", "--timezone"},
			"profile update": {"--email", "--gender", "--birthday"},
			"register":       {"--confirm", "--captcha", "--show"},
			"login":          {"--captcha", "--show"},
		},
		GuestOnly: []string{"login", "register"},
		AuthOnly:  []string{"logout", "profile"},
	}
}

// Has reports whether name is a known command.
func (v *Vocabulary) Has(name string) bool {
	return contains(v.Commands, name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
