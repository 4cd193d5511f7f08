package report

var troubleshooting = []string{
	"Check your internet connection and make sure it's stable.",
	"Try restarting your router or modem if you're experiencing widespread connectivity issues.",
	"Some ISPs may block ICMP ping packets. Try using a different network if possible.",
	"If only specific regions are unreachable, it could be due to routing issues with your ISP.",
	"Temporarily disable your firewall to check if it's blocking the connections.",
	"Try running the application as administrator for better network access.",
}

const allClear = "All servers are reachable. No troubleshooting needed!"

// Tips returns the troubleshooting list for a report with the given number
// of failed entries.
func Tips(failures int) []string {
	if failures == 0 {
		return []string{allClear}
	}
	return append([]string(nil), troubleshooting...)
}
