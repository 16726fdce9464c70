package handler

import (
	"github.com/pluto-chenxin/game-master-support/internal/mail"
	"github.com/pluto-chenxin/game-master-support/internal/storage"
)

// Mail and Uploads are the capability implementations selected at startup.
var (
	Mail    mail.Mailer = &mail.LogMailer{}
	Uploads storage.Store
)
