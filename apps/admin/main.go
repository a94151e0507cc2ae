package main

import (
	"log"
	"os"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/user"
	emailsvc "github.com/darasa/darasa/services/email"
	"github.com/darasa/darasa/storage/database"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	stdLogger := core.NewStdLogger(logger)
	mailSvc := emailsvc.NewConsoleService()

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: database.NewUserRepo(db),
		schSvc:  school.NewService(database.NewSchoolRepo(db), mailSvc, stdLogger),
		usrSvc:  user.NewService(database.NewUserRepo(db), mailSvc, stdLogger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
