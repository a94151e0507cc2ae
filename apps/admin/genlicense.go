package main

import (
	"context"
	"fmt"

	"github.com/darasa/darasa/core/school"
)

func (cli *commandLine) genLicense(duration string, count int, email string) error {
	d, err := school.ParseDuration(duration)
	if err != nil {
		return err
	}
	keys, err := cli.schSvc.MintLicenses(context.Background(), d, count, email)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Println(k.Key)
	}
	return nil
}
