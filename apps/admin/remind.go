package main

import "fmt"

// remind sends the weekly log reminders due now; dry only lists them.
func (cli *commandLine) remind(dry bool) error {
	svc, err := cli.openReminder()
	if err != nil {
		return err
	}
	if dry {
		for _, d := range svc.Due(svc.NowFunc()) {
			fmt.Fprintf(cli.out, "%s <%s>: week %d\n", d.Student.Name, d.Student.Email, d.Week)
		}
		return nil
	}
	fmt.Fprintf(cli.out, "%d reminders sent\n", svc.Run())
	return nil
}
