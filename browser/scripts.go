package browser

// Scripts are evaluated as `(fn)(args...)` and must always return a value;
// an undefined result is an evaluation error.

// discoverScript tags matching elements with a stable ref and reports their
// geometry, visibility and identity.
const discoverScript = `function(selector, prioritySelectors) {
	const vw = window.innerWidth || document.documentElement.clientWidth;
	const vh = window.innerHeight || document.documentElement.clientHeight;
	let next = window.__hintnavNext || 0;
	const out = [];
	for (const el of document.querySelectorAll(selector)) {
		let ref = el.getAttribute('data-hintnav-ref');
		if (!ref) {
			ref = String(++next);
			el.setAttribute('data-hintnav-ref', ref);
		}
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		out.push({
			ref: ref,
			x: rect.left,
			y: rect.top,
			width: rect.width,
			height: rect.height,
			visible: style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0',
			landmark: prioritySelectors.some((s) => { try { return el.matches(s); } catch (e) { return false; } }),
			inViewport: rect.top >= 0 && rect.left >= 0 && rect.bottom <= vh && rect.right <= vw,
			textLike: el.tagName === 'INPUT' || el.tagName === 'TEXTAREA',
			url: typeof el.href === 'string' ? el.href : '',
			tag: el.tagName.toLowerCase(),
			id: el.id || '',
			classes: Array.from(el.classList || []),
			text: (el.textContent || '').trim().slice(0, 200),
		});
	}
	window.__hintnavNext = next;
	return out;
}`

// renderScript draws or updates badges. Positions are viewport coordinates
// shifted by the scroll offset, since badges are absolutely positioned.
const renderScript = `function(badges, rebuild, style) {
	let root = document.getElementById('hintnav-badges');
	if (rebuild && root) {
		root.remove();
		root = null;
	}
	if (!root) {
		root = document.createElement('div');
		root.id = 'hintnav-badges';
		root.style.cssText = 'position:absolute;top:0;left:0;z-index:2147483647;pointer-events:none;';
		document.body.appendChild(root);
	}
	for (const b of badges) {
		let el = root.querySelector('[data-code="' + b.code + '"]');
		if (!el) {
			el = document.createElement('div');
			el.dataset.code = b.code;
			const bg = b.priority ? style.priority : (b.field ? style.field : style.label);
			el.style.cssText = 'position:absolute;display:flex;padding:0 3px;border:1px solid ' + style.border + ';border-radius:3px;' +
				'font:bold 11px/14px monospace;color:' + style.text + ';background:' + bg + ';';
			el.style.left = (b.x + window.scrollX) + 'px';
			el.style.top = (b.y + window.scrollY) + 'px';
			root.appendChild(el);
		}
		el.style.display = b.visible ? 'flex' : 'none';
		el.textContent = '';
		const matched = document.createElement('span');
		matched.style.textDecoration = 'underline';
		matched.style.color = style.typed;
		matched.textContent = b.matched;
		const rest = document.createElement('span');
		rest.textContent = b.rest;
		el.appendChild(matched);
		el.appendChild(rest);
	}
	return true;
}`

const clearScript = `function() {
	const root = document.getElementById('hintnav-badges');
	if (root) root.remove();
	return true;
}`

const clickScript = `function(ref) {
	const el = document.querySelector('[data-hintnav-ref="' + ref + '"]');
	if (!el) return false;
	el.click();
	return true;
}`

const focusScript = `function(ref, selectText) {
	const el = document.querySelector('[data-hintnav-ref="' + ref + '"]');
	if (!el) return false;
	el.focus();
	el.scrollIntoView({ behavior: 'smooth', block: 'center' });
	if (selectText && typeof el.select === 'function') el.select();
	return true;
}`

const activeEditableScript = `function() {
	const el = document.activeElement;
	return !!el && el.matches('input, textarea, select, [contenteditable="true"]');
}`

const submitScript = `function() {
	const active = document.activeElement;
	const form = active && active.closest ? active.closest('form') : null;
	if (form) {
		form.submit();
		return true;
	}
	for (const el of document.querySelectorAll('button[type="submit"], input[type="submit"]')) {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		if (rect.width > 0 && rect.height > 0 && style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0') {
			el.click();
			return true;
		}
	}
	return false;
}`
