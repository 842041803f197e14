package cmd

import (
	"flag"
)

type Flags struct {
	URL      string
	Cookies  string
	Channels string
	Version  bool
}

func ParseFlags() Flags {
	flags := Flags{}

	flag.StringVar(&flags.URL, "u", "", "Post or channel URL to process once, without a channel config")
	flag.StringVar(&flags.URL, "url", "", "Post or channel URL to process once, without a channel config")
	flag.StringVar(&flags.Cookies, "c", "", "Path to a Netscape cookies.txt file")
	flag.StringVar(&flags.Cookies, "cookies", "", "Path to a Netscape cookies.txt file")
	flag.StringVar(&flags.Channels, "channels", "", "Directory of per-channel config files")
	flag.BoolVar(&flags.Version, "v", false, "Display version information")
	flag.BoolVar(&flags.Version, "version", false, "Display version information")

	flag.Parse()

	return flags
}
