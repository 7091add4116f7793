package terminal

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-delve/deet/pkg/config"
)

func configureCmd(t *Term, args string) error {
	switch args {
	case "-list":
		return configureList(t)
	case "-save":
		if err := config.SaveConfig(t.conf); err != nil {
			return err
		}
		fmt.Fprintln(t.stdout, "Configuration saved.")
		return nil
	case "":
		return fmt.Errorf("wrong number of arguments to \"config\"")
	}
	return configureSet(t, args)
}

// configFields calls fn with the yaml name of every option of conf.
func configFields(conf *config.Config, fn func(name string, field reflect.Value)) {
	v := reflect.ValueOf(conf).Elem()
	typ := v.Type()
	for i := 0; i < v.NumField(); i++ {
		name := typ.Field(i).Tag.Get("yaml")
		if comma := strings.Index(name, ","); comma >= 0 {
			name = name[:comma]
		}
		if name == "" || name == "-" {
			continue
		}
		fn(name, v.Field(i))
	}
}

func configureList(t *Term) error {
	w := tabwriter.NewWriter(t.stdout, 0, 8, 1, ' ', 0)
	configFields(t.conf, func(name string, field reflect.Value) {
		switch {
		case field.Kind() == reflect.Map:
			for _, k := range field.MapKeys() {
				fmt.Fprintf(w, "%s\t%s -> %v\n", name, k, field.MapIndex(k))
			}
		case field.Kind() == reflect.Ptr && field.IsNil():
			fmt.Fprintf(w, "%s\t<not defined>\n", name)
		case field.Kind() == reflect.Ptr:
			fmt.Fprintf(w, "%s\t%v\n", name, field.Elem())
		default:
			fmt.Fprintf(w, "%s\t%v\n", name, field)
		}
	})
	return w.Flush()
}

func configureSet(t *Term, args string) error {
	v := strings.SplitN(args, " ", 2)
	name := v[0]
	var rest string
	if len(v) == 2 {
		rest = strings.TrimSpace(v[1])
	}

	if name == "alias" {
		return configureSetAlias(t, rest)
	}

	var field reflect.Value
	configFields(t.conf, func(n string, f reflect.Value) {
		if n == name {
			field = f
		}
	})
	if !field.IsValid() || field.Kind() == reflect.Map {
		return fmt.Errorf("%q is not a configuration parameter", name)
	}

	typ := field.Type()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	var val reflect.Value
	switch typ.Kind() {
	case reflect.Int:
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			return fmt.Errorf("argument to %q must be a number greater than zero", name)
		}
		val = reflect.ValueOf(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(rest)
		if err != nil {
			return fmt.Errorf("argument to %q must be true or false", name)
		}
		val = reflect.ValueOf(b)
	case reflect.String:
		if rest == "" {
			return fmt.Errorf("argument to %q must not be empty", name)
		}
		val = reflect.ValueOf(rest)
	default:
		return fmt.Errorf("unsupported type for configuration key %q", name)
	}

	if field.Kind() == reflect.Ptr {
		p := reflect.New(typ)
		p.Elem().Set(val)
		field.Set(p)
	} else {
		field.Set(val)
	}
	return nil
}

// configureSetAlias adds an alias with "alias <command> <alias>" and
// removes one with "alias <alias>".
func configureSetAlias(t *Term, rest string) error {
	args, err := parseArgv(rest)
	if err != nil {
		return err
	}
	switch len(args) {
	case 1:
		for k, aliases := range t.conf.Aliases {
			r := aliases[:0]
			for _, alias := range aliases {
				if alias != args[0] {
					r = append(r, alias)
				}
			}
			t.conf.Aliases[k] = r
		}
	case 2:
		cmd, alias := args[0], args[1]
		if !t.cmds.isCommand(cmd) {
			return fmt.Errorf("%q is not a command", cmd)
		}
		if t.conf.Aliases == nil {
			t.conf.Aliases = make(map[string][]string)
		}
		t.conf.Aliases[cmd] = append(t.conf.Aliases[cmd], alias)
	default:
		return fmt.Errorf("wrong number of arguments to \"config alias\"")
	}
	t.cmds.Merge(t.conf.Aliases)
	return nil
}
