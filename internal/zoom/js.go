// internal/zoom/js.go
package zoom

import "fmt"

// The admin console is a component UI with few stable ids; most
// controls are located by visible text. These scripts return booleans
// (clicked or not) or strings (read text).

func clickButtonByTextScript(text string) string {
	return fmt.Sprintf(`(function() {
		var buttons = document.querySelectorAll('button');
		for (var i = 0; i < buttons.length; i++) {
			var btn = buttons[i];
			if (btn.offsetParent === null || btn.disabled) continue;
			if (btn.textContent.indexOf(%q) !== -1) {
				btn.click();
				return true;
			}
		}
		return false;
	})()`, text)
}

func clickDropdownItemScript(text string) string {
	return fmt.Sprintf(`(function() {
		var items = document.querySelectorAll("dl[role='listbox'] dd");
		for (var i = 0; i < items.length; i++) {
			if (items[i].offsetParent === null) continue;
			if (items[i].textContent.indexOf(%q) !== -1) {
				items[i].click();
				return true;
			}
		}
		return false;
	})()`, text)
}

// openDropdownByLabelScript clicks the select trigger that follows the
// form label containing the given text.
func openDropdownByLabelScript(label string) string {
	return fmt.Sprintf(`(function() {
		var labels = document.querySelectorAll('label');
		for (var i = 0; i < labels.length; i++) {
			if (labels[i].textContent.indexOf(%q) === -1) continue;
			var item = labels[i].closest('.zm-form-item') || labels[i].parentElement;
			if (!item) continue;
			var trigger = item.querySelector("span[role='button'], .zm-multi-select-button");
			if (trigger) {
				trigger.click();
				return true;
			}
		}
		return false;
	})()`, label)
}

func dialogVisibleScript(title string) string {
	return fmt.Sprintf(`(function() {
		var dialogs = document.querySelectorAll("div[role='dialog']");
		for (var i = 0; i < dialogs.length; i++) {
			if (dialogs[i].offsetParent === null) continue;
			if (dialogs[i].textContent.indexOf(%q) !== -1) return true;
		}
		return false;
	})()`, title)
}

func messageTextScript() string {
	return `(function() {
		var msg = document.querySelector('.zm-message__content');
		return msg ? msg.textContent.trim() : '';
	})()`
}

func errorBannerScript() string {
	return `(function() {
		var sel = ['.zm-login-form__error', '.error-message', '.signin-error'];
		for (var i = 0; i < sel.length; i++) {
			var el = document.querySelector(sel[i]);
			if (el && el.offsetParent !== null) return el.textContent.trim();
		}
		return '';
	})()`
}

func tabActiveScript(tabID string) string {
	return fmt.Sprintf(`(function() {
		var tab = document.getElementById(%q);
		return tab !== null && tab.className.indexOf('is-active') !== -1;
	})()`, tabID)
}

func inputValueScript(selector string) string {
	return fmt.Sprintf(`(function() {
		var el = document.querySelector(%q);
		return el ? el.value : '';
	})()`, selector)
}
