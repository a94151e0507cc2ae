package main

import (
	"context"
	"fmt"

	"github.com/darasa/darasa/core/school"
)

func (cli *commandLine) addSchool(name, instituteType, tz string, trialDays int) error {
	sch, err := cli.schSvc.Create(context.Background(), school.NewSchool{
		Name:          name,
		InstituteType: instituteType,
		Timezone:      tz,
		TrialDays:     trialDays,
	})
	if err != nil {
		return err
	}
	fmt.Printf("institute created: %s (%s)\n", sch.Name, sch.ID)
	return nil
}
