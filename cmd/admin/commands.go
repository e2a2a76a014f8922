package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/RoGogDBD/sysmon-uploader/internal/gateway"
	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
)

// cli состояние выполнения одной подкоманды.
type cli struct {
	client *gateway.Client
	token  string
	out    io.Writer
}

type command func(ctx context.Context, c *cli, args []string) error

var commands = map[string]map[string]command{
	"user": {
		"register": userRegister,
		"list":     userList,
		"passwd":   userPasswd,
		"delete":   userDelete,
	},
	"device": {
		"list":       deviceList,
		"create":     deviceCreate,
		"update":     deviceUpdate,
		"delete":     deviceDelete,
		"delete-all": deviceDeleteAll,
	},
	"key": {
		"list":       keyList,
		"get":        keyGet,
		"create":     keyCreate,
		"update":     keyUpdate,
		"delete":     keyDelete,
		"delete-all": keyDeleteAll,
		"import":     keyImport,
	},
	"data": {
		"upload": dataUpload,
		"daily":  dataDaily,
		"month":  dataMonth,
	},
}

func lookup(group, name string) (command, bool) {
	cmd, ok := commands[group][name]
	return cmd, ok
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func needArgs(args []string, n int, what string) error {
	if len(args) < n {
		return usageErr("expected %s", what)
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if fs.NArg() > 0 {
		return usageErr("unexpected arguments %v", fs.Args())
	}
	return nil
}

func userRegister(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 2, "<username> <password>"); err != nil {
		return err
	}
	fs := newFlagSet("user register")
	admin := fs.Bool("admin", false, "register as admin")
	if err := parseFlags(fs, args[2:]); err != nil {
		return err
	}
	msg, err := c.client.RegisterUser(ctx, c.token, models.NewUser{Username: args[0], Password: args[1], IsAdmin: *admin})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func userList(ctx context.Context, c *cli, _ []string) error {
	users, err := c.client.ListUsers(ctx, c.token)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tADMIN")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%t\n", u.Username, u.IsAdmin)
	}
	return tw.Flush()
}

func userPasswd(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 2, "<username> <new-password>"); err != nil {
		return err
	}
	msg, err := c.client.UpdatePassword(ctx, c.token, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func userDelete(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 1, "<username>"); err != nil {
		return err
	}
	msg, err := c.client.DeleteUser(ctx, c.token, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func deviceList(ctx context.Context, c *cli, _ []string) error {
	devices, err := c.client.ListDevices(ctx, c.token)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE ID\tNAME\tDESCRIPTION")
	for _, d := range devices {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.DeviceID, d.Name, d.Description)
	}
	return tw.Flush()
}

func deviceCreate(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 2, "<id> <name> [description]"); err != nil {
		return err
	}
	d := models.Device{DeviceID: args[0], Name: args[1]}
	if len(args) > 2 {
		d.Description = strings.Join(args[2:], " ")
	}
	created, err := c.client.CreateDevice(ctx, c.token, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created device %s (%s)\n", created.DeviceID, created.Name)
	return nil
}

func deviceUpdate(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 1, "<id> [-name N] [-description D]"); err != nil {
		return err
	}
	var upd models.DeviceUpdate
	fs := newFlagSet("device update")
	fs.Func("name", "new name", func(s string) error { upd.Name = &s; return nil })
	fs.Func("description", "new description", func(s string) error { upd.Description = &s; return nil })
	if err := parseFlags(fs, args[1:]); err != nil {
		return err
	}
	if upd.Name == nil && upd.Description == nil {
		return usageErr("nothing to update")
	}
	d, err := c.client.UpdateDevice(ctx, c.token, args[0], upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "updated device %s (%s)\n", d.DeviceID, d.Name)
	return nil
}

func deviceDelete(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 1, "<id>"); err != nil {
		return err
	}
	if err := c.client.DeleteDevice(ctx, c.token, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted device %s\n", args[0])
	return nil
}

func deviceDeleteAll(ctx context.Context, c *cli, _ []string) error {
	devices, err := c.client.ListDevices(ctx, c.token)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		ids = append(ids, d.DeviceID)
	}
	return c.deleteEach("device", ids, func(id string) error {
		return c.client.DeleteDevice(ctx, c.token, id)
	})
}

// deleteEach удаляет элементы по одному, печатая результат для каждого.
// Ошибки не прерывают обход.
func (c *cli) deleteEach(kind string, names []string, del func(string) error) error {
	var failed []error
	for _, name := range names {
		if err := del(name); err != nil {
			fmt.Fprintf(c.out, "failed to delete %s %s: %v\n", kind, name, err)
			failed = append(failed, err)
			continue
		}
		fmt.Fprintf(c.out, "deleted %s %s\n", kind, name)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d deletions failed: %w", len(failed), len(names), errors.Join(failed...))
	}
	return nil
}

func keyList(ctx context.Context, c *cli, _ []string) error {
	keys, err := c.client.ListKeys(ctx, c.token)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tNORMAL\tWARNING\tMISSING(s)\tEMAIL")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", k.KeyName, k.DataType,
			formatRange(k.NormalRange), formatRange(k.WarningRange),
			formatOptional(k.MissingDataAllowance), formatRange(k.EmailAlertRange))
	}
	return tw.Flush()
}

func keyGet(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 1, "<name>"); err != nil {
		return err
	}
	k, err := c.client.GetKey(ctx, c.token, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "key:        %s\ntype:       %s\nnormal:     %s\nwarning:    %s\nmissing(s): %s\nemail:      %s\n",
		k.KeyName, k.DataType, formatRange(k.NormalRange), formatRange(k.WarningRange),
		formatOptional(k.MissingDataAllowance), formatRange(k.EmailAlertRange))
	return nil
}

// rangeFlags регистрирует флаги -normal, -warning и -email вида min:max.
func rangeFlags(fs *flag.FlagSet, normal, warning, email **models.Range) {
	bind := func(name string, dst **models.Range) {
		fs.Func(name, name+" range min:max", func(s string) error {
			r, err := parseRangeFlag(s)
			if err != nil {
				return err
			}
			*dst = r
			return nil
		})
	}
	bind("normal", normal)
	bind("warning", warning)
	bind("email", email)
}

func parseRangeFlag(s string) (*models.Range, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("range %q must be min:max", s)
	}
	minV, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	maxV, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	return &models.Range{Min: &minV, Max: &maxV}, nil
}

func keyCreate(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 3, "<name> <float|message> <missingDataAllowance>"); err != nil {
		return err
	}
	missing, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return usageErr("missingDataAllowance %q is not a number", args[2])
	}
	k := models.Key{KeyName: args[0], DataType: args[1], MissingDataAllowance: &missing}
	fs := newFlagSet("key create")
	rangeFlags(fs, &k.NormalRange, &k.WarningRange, &k.EmailAlertRange)
	if err := parseFlags(fs, args[3:]); err != nil {
		return err
	}
	created, err := c.client.CreateKey(ctx, c.token, k)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created key %s (%s)\n", created.KeyName, created.DataType)
	return nil
}

func keyUpdate(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 1, "<name> [flags]"); err != nil {
		return err
	}
	var upd models.KeyUpdate
	fs := newFlagSet("key update")
	fs.Func("type", "data type", func(s string) error { upd.DataType = &s; return nil })
	fs.Func("missing", "missing data allowance in seconds", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		upd.MissingDataAllowance = &v
		return nil
	})
	rangeFlags(fs, &upd.NormalRange, &upd.WarningRange, &upd.EmailAlertRange)
	if err := parseFlags(fs, args[1:]); err != nil {
		return err
	}
	k, err := c.client.UpdateKey(ctx, c.token, args[0], upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "updated key %s (%s)\n", k.KeyName, k.DataType)
	return nil
}

func keyDelete(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 1, "<name>"); err != nil {
		return err
	}
	if err := c.client.DeleteKey(ctx, c.token, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted key %s\n", args[0])
	return nil
}

func keyDeleteAll(ctx context.Context, c *cli, _ []string) error {
	keys, err := c.client.ListKeys(ctx, c.token)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.KeyName)
	}
	return c.deleteEach("key", names, func(name string) error {
		return c.client.DeleteKey(ctx, c.token, name)
	})
}

// keyImport создаёт ключи из CSV-файла. Ошибка одной строки не прерывает импорт.
func keyImport(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 1, "<file.csv>"); err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	keys, err := parseKeysCSV(f)
	if err != nil {
		return err
	}
	var failed int
	for _, k := range keys {
		if _, err := c.client.CreateKey(ctx, c.token, k); err != nil {
			fmt.Fprintf(c.out, "failed to create key %s: %v\n", k.KeyName, err)
			failed++
			continue
		}
		fmt.Fprintf(c.out, "created key %s\n", k.KeyName)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d keys failed to import", failed, len(keys))
	}
	return nil
}

func dataUpload(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 3, "<key> <machine> <value> [timestamp]"); err != nil {
		return err
	}
	s := models.Sample{Key: args[0], Machine: args[1], Value: parseValue(args[2])}
	if len(args) > 3 {
		ts, err := models.ParseTimestamp(args[3])
		if err != nil {
			return usageErr("invalid timestamp %q", args[3])
		}
		s.Timestamp = models.FormatTimestamp(ts)
	}
	msg, err := c.client.UploadValue(ctx, c.token, s)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

// parseValue отправляет значение числом, если оно разбирается как float, иначе строкой.
func parseValue(s string) any {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

func dataDaily(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 3, "<device> <range> <key>..."); err != nil {
		return err
	}
	data, err := c.client.DailyData(ctx, c.token, args[0], args[1], args[2:])
	if err != nil {
		return err
	}
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		series := data[name]
		fmt.Fprintf(c.out, "%s (%s): %d values\n", name, series.Type, len(series.Values))
		for _, v := range series.Values {
			fmt.Fprintf(c.out, "  %s  %v\n", v.Timestamp, v.Value)
		}
	}
	return nil
}

func dataMonth(ctx context.Context, c *cli, args []string) error {
	if err := needArgs(args, 2, "<device> <key>"); err != nil {
		return err
	}
	agg, msg, err := c.client.MonthlyAggregate(ctx, c.token, args[0], args[1])
	if err != nil {
		return err
	}
	if agg == nil {
		fmt.Fprintln(c.out, msg)
		return nil
	}
	fmt.Fprintf(c.out, "min:    %g\nmax:    %g\nmedian: %g\nmean:   %g\nauc:    %g\n",
		agg.Min, agg.Max, agg.Median, agg.Mean, agg.AUC)
	return nil
}

func formatRange(r *models.Range) string {
	if r == nil {
		return "-"
	}
	return formatOptional(r.Min) + ".." + formatOptional(r.Max)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
