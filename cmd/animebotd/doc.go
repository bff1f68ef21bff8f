// Command animebotd runs the anime title cache daemon until SIGINT or
// SIGTERM. It reads the config file named by ANIMEBOT_CONFIG, falling back to
// the default search order.
package main
